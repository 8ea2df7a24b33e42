package remote

import (
	"context"
	"testing"

	"photokeep/internal/backup"
	"photokeep/internal/config"
)

func TestNewRemoteFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RemoteConfig
		wantErr bool
	}{
		{
			name: "memory remote",
			cfg: config.RemoteConfig{
				Type: "memory",
				Name: "test-memory",
			},
			wantErr: false,
		},
		{
			name: "filesystem remote",
			cfg: config.RemoteConfig{
				Type: "filesystem",
				Name: "test-fs",
			},
			wantErr: false,
		},
		{
			name: "filesystem remote without root",
			cfg: config.RemoteConfig{
				Type: "filesystem",
				Name: "test-fs",
			},
			wantErr: true,
		},
		{
			name: "s3 remote without bucket",
			cfg: config.RemoteConfig{
				Type: "s3",
				Name: "test-s3",
			},
			wantErr: true,
		},
		{
			name: "unknown remote type",
			cfg: config.RemoteConfig{
				Type: "gopher",
				Name: "test-unknown",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if cfg.Type == "filesystem" && !tt.wantErr {
				cfg.FSRemoteRoot = t.TempDir()
			}

			got, err := NewRemoteFromConfig(context.Background(), cfg, backup.RealClock{})

			if (err != nil) != tt.wantErr {
				t.Errorf("NewRemoteFromConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got == nil {
				t.Fatal("NewRemoteFromConfig() = nil, want store")
			}
			if err := got.ValidateSetup(context.Background()); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}
}
