package domain

import (
	"fmt"
	"sync"
)

// ConfigCallback fires on every configuration mutation. isCookie and
// isHeader tell the listener which reserved category changed; both are
// false for plain settings.
type ConfigCallback func(key, value string, isCookie, isHeader bool)

// Config is the mutable configuration carried by every finder: request
// headers, request cookies and declared opaque settings. Finders react
// to changes through the callback without being replaced.
//
// Headers and cookies are reserved categories with their own setters;
// plain settings must be declared before they can be set, so typos in
// setting names fail fast instead of being silently stored.
type Config struct {
	mu       sync.RWMutex
	headers  map[string]string
	cookies  map[string]string
	settings map[string]any
	callback ConfigCallback
}

// NewConfig creates a configuration object. The callback may be nil.
func NewConfig(callback ConfigCallback) *Config {
	return &Config{
		headers:  make(map[string]string),
		cookies:  make(map[string]string),
		settings: make(map[string]any),
		callback: callback,
	}
}

// SetCallback replaces the mutation callback.
func (c *Config) SetCallback(callback ConfigCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = callback
}

// SetHeader sets a request header and notifies the callback.
func (c *Config) SetHeader(key, value string) {
	c.mu.Lock()
	c.headers[key] = value
	cb := c.callback
	c.mu.Unlock()

	if cb != nil {
		cb(key, value, false, true)
	}
}

// Header returns a request header value.
func (c *Config) Header(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers[key]
}

// Headers returns a copy of all request headers.
func (c *Config) Headers() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyStringMap(c.headers)
}

// SetCookie sets a request cookie and notifies the callback.
func (c *Config) SetCookie(key, value string) {
	c.mu.Lock()
	c.cookies[key] = value
	cb := c.callback
	c.mu.Unlock()

	if cb != nil {
		cb(key, value, true, false)
	}
}

// Cookie returns a request cookie value.
func (c *Config) Cookie(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cookies[key]
}

// Cookies returns a copy of all request cookies.
func (c *Config) Cookies() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyStringMap(c.cookies)
}

// Declare registers a setting key with its default value. Finders call
// this at construction for every setting they understand.
func (c *Config) Declare(key string, defaultValue any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings[key] = defaultValue
}

// Set assigns a declared setting and notifies the callback. Reserved
// and undeclared keys are rejected with ErrInvalidConfigKey.
func (c *Config) Set(key string, value any) error {
	if key == "headers" || key == "cookies" {
		return fmt.Errorf("%w: %q is reserved, use SetHeader or SetCookie", ErrInvalidConfigKey, key)
	}

	c.mu.Lock()
	if _, ok := c.settings[key]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrInvalidConfigKey, key)
	}
	c.settings[key] = value
	cb := c.callback
	c.mu.Unlock()

	if cb != nil {
		cb(key, fmt.Sprint(value), false, false)
	}
	return nil
}

// Get returns a setting value, or the given default when the key was
// never declared.
func (c *Config) Get(key string, defaultValue any) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.settings[key]; ok {
		return v
	}
	return defaultValue
}

// GetString returns a setting as a string, or "" when absent or not a
// string.
func (c *Config) GetString(key string) string {
	v := c.Get(key, "")
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
