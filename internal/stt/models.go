package stt

// Models lists the prerecorded models offered to users, default first.
// Other model names are passed through to Deepgram unchecked.
var Models = []string{"nova-3-general", "nova-2", "nova", "enhanced", "base"}
