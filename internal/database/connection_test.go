package database

import (
	"testing"

	"gorm.io/gorm/logger"
)

func TestWithUTC(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@db:5432/app?sslmode=disable", "postgres://u:p@db:5432/app?sslmode=disable&timezone=UTC"},
		{"postgres://u:p@db:5432/app?TimeZone=Asia/Manila", "postgres://u:p@db:5432/app?TimeZone=Asia/Manila"},
		{"host=db user=u dbname=app", "host=db user=u dbname=app TimeZone=UTC"},
	}
	for _, tt := range tests {
		if got := withUTC(tt.in); got != tt.want {
			t.Errorf("withUTC(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	if ParseLogLevel("INFO") != logger.Info || ParseLogLevel("silent") != logger.Silent || ParseLogLevel("") != logger.Warn {
		t.Fatal("unexpected log level mapping")
	}
}
