package prompt

// GetValidatorSystemPrompt instructs the secondary model to re-judge an
// already-filtered batch and return only the corrections it endorses, in
// the same structural schema.
func GetValidatorSystemPrompt() string {
	return "You are a helpful assistant that validates the corrections provided below. You check if the corrections are correct and if they are relevant to the text. You return the corrections that are correct and relevant to the text. You return the corrections in the same format as the original corrections."
}
