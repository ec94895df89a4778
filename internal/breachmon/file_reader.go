package breachmon

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/breachmon/breachmon/internal/database/models"
)

// ReadAccountsFile reads a plain text watchlist, one account per line.
// Blank lines and lines starting with # are skipped.
func ReadAccountsFile(filePath string) ([]models.AccountRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	var records []models.AccountRecord

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		records = append(records, models.AccountRecord{Account: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}
	return records, nil
}
