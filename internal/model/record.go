package model

// Record is one row of the data table as served by /api/test1.
type Record struct {
	Field1 string `json:"field1"`
	Field2 int    `json:"field2"`
}
