package breachmon

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/breachmon/breachmon/internal/database/models"
)

// ReadAccountsCSV reads a watchlist CSV with "account,comment" rows and no
// header. The comment column is optional.
func ReadAccountsCSV(filePath string) ([]models.AccountRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records []models.AccountRecord

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		if len(row) < 1 || row[0] == "" {
			continue // Skip invalid records
		}

		record := models.AccountRecord{Account: row[0]}
		if len(row) > 1 {
			record.Comment = row[1]
		}
		records = append(records, record)
	}

	return records, nil
}
