package tts

// Voice is one of the Aura-2 voice personas offered to users.
type Voice struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultVoice is used when the caller does not pick a persona.
const DefaultVoice = "thalia"

var voices = []Voice{
	{Name: "thalia", Description: "Warm and friendly"},
	{Name: "zeus", Description: "Authoritative and strong"},
	{Name: "asteria", Description: "Clear and professional"},
	{Name: "odysseus", Description: "Conversational and engaging"},
	{Name: "arcas", Description: "Calm and soothing"},
	{Name: "andromeda", Description: "Modern and dynamic"},
}

// voiceSet for quick validation
var voiceSet = func() map[string]bool {
	m := make(map[string]bool, len(voices))
	for _, v := range voices {
		m[v.Name] = true
	}
	return m
}()

// Voices returns the supported personas in display order.
func Voices() []Voice {
	out := make([]Voice, len(voices))
	copy(out, voices)
	return out
}

// IsVoice reports whether name is a supported persona.
func IsVoice(name string) bool {
	return voiceSet[name]
}
