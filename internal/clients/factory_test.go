package clients

import (
	"context"
	"errors"
	"testing"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/models"
)

func TestNewSource_SelectsVariant(t *testing.T) {
	for _, name := range []string{common.SourceFMP, common.SourceEODHD, common.SourceTiingo} {
		cfg := common.NewDefaultConfig().Clients
		cfg.Source = name
		vendor, _ := cfg.Vendor(name)
		vendor.APIKey = "key"

		src, err := NewSource(cfg, common.NewSilentLogger())
		if err != nil {
			t.Fatalf("NewSource(%s): %v", name, err)
		}
		if src.Name() != name {
			t.Errorf("Name() = %s, want %s", src.Name(), name)
		}
	}
}

func TestNewSource_MissingKey(t *testing.T) {
	cfg := common.NewDefaultConfig().Clients
	cfg.FMP.APIKey = ""

	_, err := NewSource(cfg, common.NewSilentLogger())
	if !errors.Is(err, models.ErrSourceNotConfigured) {
		t.Fatalf("expected ErrSourceNotConfigured, got %v", err)
	}
}

func TestNewSource_UnknownVendor(t *testing.T) {
	cfg := common.NewDefaultConfig().Clients
	cfg.Source = "yahoo"
	if _, err := NewSource(cfg, common.NewSilentLogger()); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnconfigured(t *testing.T) {
	u := Unconfigured{Vendor: "fmp"}
	if _, err := u.GetPrices(context.Background(), "AAPL"); !errors.Is(err, models.ErrSourceNotConfigured) {
		t.Errorf("GetPrices err = %v", err)
	}
	if _, err := u.GetFundamentals(context.Background(), "AAPL"); !errors.Is(err, models.ErrSourceNotConfigured) {
		t.Errorf("GetFundamentals err = %v", err)
	}
}
