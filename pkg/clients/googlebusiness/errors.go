package googlebusiness

import "fmt"

// CallError is a non-2xx response from one resource-API endpoint.
type CallError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *CallError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("provider call to %s failed: %s", e.Endpoint, e.Body)
	}

	return fmt.Sprintf("provider call to %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// ProviderAPIError means both the primary endpoint and its documented
// fallback rejected the call for non-authorization reasons. Both failures
// are carried verbatim for operator diagnosis.
type ProviderAPIError struct {
	Primary  *CallError
	Fallback *CallError
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("provider API failed on both endpoint versions: primary: %v; fallback: %v", e.Primary, e.Fallback)
}
