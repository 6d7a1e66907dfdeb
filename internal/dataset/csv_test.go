package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestOpenCSV_NotFound(t *testing.T) {
	_, err := OpenCSV(filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestCSVSource_ReadsRecords(t *testing.T) {
	path := writeTempCSV(t,
		"id,amount,category,merchant,payment_method,extra\n"+
			"1,10.50,grocery_pos,fraud_Acme,credit_card,x\n"+
			"2,20,gas_transport,Shell,debit_card,y\n")

	src, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}
	defer src.Close()

	rec, err := src.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.AmountMinor != 1050 || rec.Category != "grocery_pos" || rec.Merchant != "fraud_Acme" || rec.PaymentMethod != "credit_card" {
		t.Errorf("unexpected first record: %+v", rec)
	}

	rec, err = src.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.AmountMinor != 2000 || rec.Merchant != "Shell" {
		t.Errorf("unexpected second record: %+v", rec)
	}

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after last row, got %v", err)
	}
}

func TestOpenCSV_MissingColumn(t *testing.T) {
	path := writeTempCSV(t, "amount,category,merchant\n10,grocery_pos,Acme\n")
	if _, err := OpenCSV(path); err == nil {
		t.Fatal("expected error for missing payment_method column")
	}
}

func TestCSVSource_MalformedAmount(t *testing.T) {
	path := writeTempCSV(t,
		"amount,category,merchant,payment_method\n"+
			"oops,grocery_pos,Acme,credit_card\n")
	src, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}
	defer src.Close()

	if _, err := src.Next(); err == nil {
		t.Fatal("expected error for malformed amount")
	}
}

func TestCSVSource_EmptyFile(t *testing.T) {
	path := writeTempCSV(t, "")
	src, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV failed on empty file: %v", err)
	}
	defer src.Close()

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected immediate io.EOF, got %v", err)
	}
}

func TestCSVSource_HeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "amount,category,merchant,payment_method\n")
	src, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}
	defer src.Close()

	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}
