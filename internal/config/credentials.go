package config

import "strings"

// values people leave in .env files after copying an example
var placeholderCredentials = map[string]struct{}{
	"your_openai_api_key_here":      {},
	"your_google_api_key_here":      {},
	"your_huggingface_token_here":   {},
	"your_huggingfacehub_api_token": {},
	"changeme":                      {},
	"none":                          {},
	"null":                          {},
}

const minCredentialLength = 8

// ValidCredential is a syntactic check only; it never calls the provider.
func ValidCredential(value string) bool {
	v := strings.TrimSpace(value)
	if len(v) < minCredentialLength {
		return false
	}
	if strings.ContainsAny(v, " \t\r\n") {
		return false
	}
	lower := strings.ToLower(v)
	if _, isPlaceholder := placeholderCredentials[lower]; isPlaceholder {
		return false
	}
	return !strings.HasPrefix(lower, "your_")
}

func (s *Settings) PaidCredential() string {
	if s.PaidProvider == PaidProviderGemini {
		return s.Google.APIKey
	}
	return s.OpenAI.APIKey
}

func (s *Settings) HasPaidCredential() bool {
	return ValidCredential(s.PaidCredential())
}

func (s *Settings) HasHubToken() bool {
	return ValidCredential(s.HuggingFace.Token)
}
