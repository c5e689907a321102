package analysis

// DefaultLanguage is used when the caller does not pick one.
const DefaultLanguage = "en"

// Languages lists the analysis languages offered to users, default first.
var Languages = []string{"en", "en-US", "en-GB"}
