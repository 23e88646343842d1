package util

import (
	"testing"
)

func TestGetOutboundIPVia_Loopback(t *testing.T) {
	ip, err := GetOutboundIPVia("127.0.0.1:9")
	if err != nil {
		t.Fatalf("GetOutboundIPVia() error = %v", err)
	}

	if !ip.IsLoopback() {
		t.Errorf("GetOutboundIPVia(loopback) = %v, want loopback address", ip)
	}
}

func TestGetOutboundIPVia_InvalidAddress(t *testing.T) {
	if _, err := GetOutboundIPVia("not-an-address"); err == nil {
		t.Error("GetOutboundIPVia() should fail for an address without port")
	}
}
