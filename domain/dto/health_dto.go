package dto

const (
	HealthOK       = "OK"
	HealthDegraded = "DEGRADED"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}
