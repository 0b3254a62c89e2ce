package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Imports a roster CSV exported from the legacy spreadsheet into a running
// API instance. Expected columns: nis, nama, kelas, kontak (header row
// optional, detected by a literal "nis" in the first cell).

type studentRow struct {
	NIS             string `json:"nis"`
	Name            string `json:"nama"`
	Cohort          string `json:"kelas"`
	GuardianContact string `json:"guardian_contact,omitempty"`
}

type tokenRequest struct {
	AccessKey string `json:"access_key"`
	Operator  string `json:"operator,omitempty"`
}

type tokenEnvelope struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

func main() {
	var (
		base      string
		csvPath   string
		accessKey string
		timeout   time.Duration
		dryRun    bool
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&csvPath, "csv", "", "Path to roster CSV export")
	flag.StringVar(&accessKey, "access-key", os.Getenv("AUTH_ACCESS_KEY"), "Operator access key")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.BoolVar(&dryRun, "dry-run", false, "Parse and report without writing")
	flag.Parse()

	if csvPath == "" {
		log.Fatal("missing -csv path")
	}

	rows, err := loadRoster(csvPath)
	if err != nil {
		log.Fatalf("failed to load roster: %v", err)
	}
	log.Printf("parsed %d students from %s", len(rows), csvPath)

	if dryRun {
		for _, row := range rows {
			fmt.Printf("%s\t%s\t%s\n", row.NIS, row.Name, row.Cohort)
		}
		return
	}

	client := &http.Client{Timeout: timeout}
	token, err := issueToken(client, base, accessKey)
	if err != nil {
		log.Fatalf("failed to authenticate: %v", err)
	}

	var created, skipped, failed int
	for _, row := range rows {
		status, err := createStudent(client, base, token, row)
		switch {
		case err != nil:
			failed++
			log.Printf("nis %s: %v", row.NIS, err)
		case status == http.StatusConflict:
			skipped++
		case status == http.StatusCreated:
			created++
		default:
			failed++
			log.Printf("nis %s: unexpected status %d", row.NIS, status)
		}
	}

	log.Printf("done: %d created, %d already present, %d failed", created, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func loadRoster(path string) ([]studentRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []studentRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 3 {
			continue
		}
		nis := strings.TrimSpace(record[0])
		if nis == "" || strings.EqualFold(nis, "nis") {
			continue
		}
		row := studentRow{
			NIS:    nis,
			Name:   strings.TrimSpace(record[1]),
			Cohort: strings.TrimSpace(record[2]),
		}
		if len(record) > 3 {
			row.GuardianContact = strings.TrimSpace(record[3])
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no student rows in %s", path)
	}
	return rows, nil
}

func issueToken(client *http.Client, base, accessKey string) (string, error) {
	if accessKey == "" {
		return "", fmt.Errorf("missing access key, set -access-key or AUTH_ACCESS_KEY")
	}
	body, err := json.Marshal(tokenRequest{AccessKey: accessKey, Operator: "roster-import"})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(strings.TrimRight(base, "/")+"/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}
	var envelope tokenEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if envelope.Data.Token == "" {
		return "", fmt.Errorf("empty token in response")
	}
	return envelope.Data.Token, nil
}

func createStudent(client *http.Client, base, token string, row studentRow) (int, error) {
	body, err := json.Marshal(row)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(base, "/")+"/students", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	return resp.StatusCode, nil
}
