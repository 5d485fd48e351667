package server

// AnalyzeRequest starts an analysis. A URL without a scheme is treated as
// https.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Jobs   int    `json:"jobs"`
}
