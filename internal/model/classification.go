package model

// ClassificationInput is one record from the upload/ingestion path: a typed
// identity plus an open attribute bag, validated at the boundary before it
// enters the classifier.
type ClassificationInput struct {
	PatientID  string  `json:"patient_id"`
	Name       string  `json:"name"`
	Attributes JSONMap `json:"attributes,omitempty"`
}

// Prediction is what the external classifier service returns per record. The
// engine only consumes the probability; the service's own risk_level is
// ignored so the threshold policy stays centralized here.
type Prediction struct {
	ReadmissionProbability float64 `json:"readmission_probability"`
	RiskLevel              string  `json:"risk_level,omitempty"`
	Prediction             string  `json:"prediction,omitempty"`
	Error                  string  `json:"error,omitempty"`
}

// ClassificationResult is the discrete classification derived from a
// probability.
type ClassificationResult struct {
	RiskTier    RiskTier      `json:"risk_tier"`
	Priority    AlertPriority `json:"priority,omitempty"`
	RiskFactors []string      `json:"risk_factors"`
	Probability float64       `json:"probability"`
	Confidence  string        `json:"confidence"`
	Prediction  string        `json:"prediction,omitempty"`
}

// BatchItem pairs result[i] with input[i]; a record that failed carries an
// error marker instead of a result, and the batch continues around it.
type BatchItem struct {
	Input  ClassificationInput   `json:"input"`
	Result *ClassificationResult `json:"result,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// BatchSummary is the order-preserving output of a whole classification run.
type BatchSummary struct {
	Total      int         `json:"total"`
	HighRisk   int         `json:"high_risk"`
	MediumRisk int         `json:"medium_risk"`
	LowRisk    int         `json:"low_risk"`
	Failed     int         `json:"failed"`
	Items      []BatchItem `json:"items"`
}

type ClassifyBatchRequest struct {
	Records []ClassificationInput `json:"records" binding:"required,min=1"`
	Persist bool                  `json:"persist"`
}
