package math

import (
	"encoding/json"
	"fmt"
)

// Matrix32 represents a matrix with float32 data in row-major order
type Matrix32 struct {
	Rows int
	Cols int
	Data []float32 // row-major: Data[i*Cols + j] = element at row i, col j
}

// NewMatrix32Empty allocates a zeroed rows x cols matrix
func NewMatrix32Empty(rows, cols int) *Matrix32 {
	return &Matrix32{
		Rows: rows,
		Cols: cols,
		Data: make([]float32, rows*cols),
	}
}

// NewMatrix32FromRows copies equally sized rows into a new matrix
func NewMatrix32FromRows(rows [][]float32) (*Matrix32, error) {
	if len(rows) == 0 {
		return NewMatrix32Empty(0, 0), nil
	}
	cols := len(rows[0])
	m := NewMatrix32Empty(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("inconsistent row length at row %d: expected %d, got %d", i, cols, len(row))
		}
		copy(m.Data[i*cols:(i+1)*cols], row)
	}
	return m, nil
}

// Dims returns the number of rows and columns
func (m *Matrix32) Dims() (int, int) {
	return m.Rows, m.Cols
}

// RawData returns the underlying float32 slice
func (m *Matrix32) RawData() []float32 {
	return m.Data
}

// Set writes a single element
func (m *Matrix32) Set(i, j int, v float32) {
	m.Data[i*m.Cols+j] = v
}

// At reads a single element
func (m *Matrix32) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// Row returns row i as a slice sharing the matrix storage
func (m *Matrix32) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// NormalizeRows scales every row to unit L2 norm in place.
// Zero rows are left untouched.
func (m *Matrix32) NormalizeRows() {
	for i := 0; i < m.Rows; i++ {
		NormalizeInPlace(m.Row(i))
	}
}

// ToRows copies the matrix into a slice of rows
func (m *Matrix32) ToRows() [][]float32 {
	out := make([][]float32, m.Rows)
	for i := range out {
		row := make([]float32, m.Cols)
		copy(row, m.Row(i))
		out[i] = row
	}
	return out
}

// MarshalJSON writes the matrix as nested arrays
func (m *Matrix32) MarshalJSON() ([]byte, error) {
	rows := m.ToRows()
	if rows == nil {
		rows = [][]float32{}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON implements json.Unmarshaler interface
// Accepts JSON in the format: [[1.0, 2.0, 3.0], [4.0, 5.0, 6.0]]
func (m *Matrix32) UnmarshalJSON(data []byte) error {
	var temp [][]float32
	if err := json.Unmarshal(data, &temp); err != nil {
		return fmt.Errorf("failed to unmarshal matrix: %w", err)
	}

	if len(temp) == 0 {
		m.Rows = 0
		m.Cols = 0
		m.Data = []float32{}
		return nil
	}

	built, err := NewMatrix32FromRows(temp)
	if err != nil {
		return err
	}
	*m = *built

	return nil
}
