package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer derives cache keys.
type Keyer interface {
	// HTTPKey keys a raw backend response.
	HTTPKey(namespace, key string) string
	// ProjectKey keys a decoded project document.
	ProjectKey(projectID string) string
	// DiagramKey keys converter output for an input payload.
	DiagramKey(payload []byte, opts DiagramKeyOpts) string
}

// DiagramKeyOpts lists the conversion options that change the output.
type DiagramKeyOpts struct {
	Format    string `json:"format"`
	Direction string `json:"direction,omitempty"`
	Shape     string `json:"shape,omitempty"`
	Strict    bool   `json:"strict,omitempty"`
	Renderer  string `json:"renderer,omitempty"`
	Detailed  bool   `json:"detailed,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key layout.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ProjectKey returns "project:<id>".
func (DefaultKeyer) ProjectKey(projectID string) string {
	return "project:" + projectID
}

// DiagramKey returns "diagram:<sha256 of payload and options>".
func (DefaultKeyer) DiagramKey(payload []byte, opts DiagramKeyOpts) string {
	return hashKey("diagram", Hash(payload), opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
