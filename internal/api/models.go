package api

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Guards  int    `json:"guards"`
}

type GuardListResponse struct {
	Guards []string `json:"guards"`
}
