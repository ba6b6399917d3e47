package main

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ecopulse-analytics-api/config"
	"ecopulse-analytics-api/dataset"
	"ecopulse-analytics-api/handlers"
	"ecopulse-analytics-api/services"

	"github.com/gin-gonic/gin"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestSelectSource(t *testing.T) {
	collection := dataset.StaticSource{}
	sources := config.SourceConfig{XLSXPath: "peer.xlsx", XLSXSheet: "Sheet2"}

	got := selectSource(config.SourceXLSX, sources, collection)
	if x, ok := got.(dataset.XLSXSource); !ok || x.Path != "peer.xlsx" || x.Sheet != "Sheet2" {
		t.Errorf("xlsx source = %#v", got)
	}
	if _, ok := selectSource(config.SourceMongo, sources, collection).(dataset.StaticSource); !ok {
		t.Error("mongo kind should use the collection")
	}
}

func TestPeerConfig(t *testing.T) {
	pc := peerConfig(config.PeerConfig{})
	if pc.Region != "Visayas" || len(pc.Subgrids) != 5 {
		t.Errorf("defaults = %+v", pc)
	}
	pc = peerConfig(config.PeerConfig{Region: "Luzon", Subgrids: []string{"North"}})
	if pc.AggregateGeneration() != "Luzon Total Power Generation (GWh)" || pc.Subgrids[0] != "North" {
		t.Errorf("override = %+v", pc)
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: "*"}}
	deps := handlers.Deps{Cache: &services.CacheService{}}

	tests := []struct {
		name string
		ping error
		want int
	}{
		{"up", nil, http.StatusOK},
		{"mongo down", errors.New("no reachable servers"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(cfg, deps, fakePinger{err: tt.ping})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

// store.Connect reports a successful connection; main must not repeat it.
func TestMainLeavesConnectLogToStore(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "main.go", nil, 0)
	if err != nil {
		t.Fatalf("parse main.go: %v", err)
	}
	ast.Inspect(f, func(n ast.Node) bool {
		lit, ok := n.(*ast.BasicLit)
		if ok && lit.Kind == token.STRING && strings.Contains(lit.Value, "mongo connected") {
			t.Errorf("%s: duplicate connect log %s", fset.Position(lit.Pos()), lit.Value)
		}
		return true
	})
}
