// Package aisterr defines the error taxonomy shared across AIST processes.
//
// The typed errors let callers tell failure kinds apart with errors.As.
// Call sites that publish an init.status_update event (see
// internal/eventbus) supply the component and status themselves and use
// the error's text as the detail.
package aisterr

import "fmt"

// Component names a subsystem tracked by ComponentStatus.
type Component string

const (
	ComponentLLM    Component = "llm"
	ComponentTTS    Component = "tts"
	ComponentSTT    Component = "stt"
	ComponentSkills Component = "skills"
)

// ConfigError marks a fatal configuration problem at process startup.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ModelLoadError marks a non-fatal model-load failure for one component.
// The owning process keeps running with that component degraded.
type ModelLoadError struct {
	Component Component
	Err       error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("%s model load failed: %v", e.Component, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// TransientIPCError marks a timeout or broken-socket condition on the
// command channel or event bus. Callers synthesize a user-facing fallback
// and keep serving subsequent requests.
type TransientIPCError struct {
	Op  string
	Err error
}

func (e *TransientIPCError) Error() string {
	return fmt.Sprintf("ipc %s: %v", e.Op, e.Err)
}

func (e *TransientIPCError) Unwrap() error { return e.Err }

// SkillFailureError wraps a sandboxed skill invocation outcome: timeout,
// crash, or a success=false result from the child process.
type SkillFailureError struct {
	SkillID string
	Intent  string
	Reason  string // "timeout", "crash", "error"
}

func (e *SkillFailureError) Error() string {
	return fmt.Sprintf("skill %s (%s): %s", e.SkillID, e.Intent, e.Reason)
}

// RoutingParseError marks unparseable LLM routing output. Callers fall back
// to chat mode rather than surfacing this to the user.
type RoutingParseError struct {
	Raw string
}

func (e *RoutingParseError) Error() string {
	return fmt.Sprintf("could not parse routing output: %q", e.Raw)
}

// AudioDeviceError marks a fatal STT-provider-scoped audio device failure.
// The frontend process keeps serving typed commands.
type AudioDeviceError struct {
	Device string
	Err    error
}

func (e *AudioDeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Device, e.Err)
}

func (e *AudioDeviceError) Unwrap() error { return e.Err }
