package oura

// Row is an undecoded collection record. Payload shapes drift across
// vendor API versions, so field extraction happens downstream in the
// biofeedback aggregator rather than here.
type Row map[string]any

type PersonalInfo struct {
	ID            string   `json:"id"`
	Age           *int     `json:"age"`
	Weight        *float64 `json:"weight"`
	Height        *float64 `json:"height"`
	BiologicalSex string   `json:"biological_sex"`
	Email         string   `json:"email"`
}
