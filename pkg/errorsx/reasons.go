package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonConfiguration         ReasonCode = "configuration"
	ReasonRecognitionFailure    ReasonCode = "recognition_failure"
	ReasonSynthesisFailure      ReasonCode = "synthesis_failure"
	ReasonTranslationKeyMissing ReasonCode = "translation_key_missing"

	ReasonProviderConnect   ReasonCode = "provider_connect"
	ReasonProviderSend      ReasonCode = "provider_send"
	ReasonProviderRateLimit ReasonCode = "provider_rate_limit"

	ReasonAudioSource ReasonCode = "audio_source"
	ReasonAudioWrite  ReasonCode = "audio_write"
)
