package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	extensionrpc "lectio/internal/modules/extension/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
)

// server is the reference notifier extension. It appends each notification as
// a JSON line to LECTIO_NOTIFIER_OUT, falling back to notifier.log next to
// the binary.
type server struct{}

func (s *server) GetMetadata(_ context.Context, _ *extensionrpc.Empty) (*extensionrpc.Metadata, error) {
	return &extensionrpc.Metadata{
		Name:         "notifier",
		Version:      "1.0.0",
		Capabilities: []string{"notify"},
	}, nil
}

func (s *server) Notify(_ context.Context, in *extensionrpc.Notification) (*extensionrpc.NotifyResponse, error) {
	path, err := outputPath()
	if err != nil {
		return nil, err
	}
	line, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open notification log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("append notification: %w", err)
	}
	return &extensionrpc.NotifyResponse{Acknowledged: true}, nil
}

func outputPath() (string, error) {
	if path := os.Getenv("LECTIO_NOTIFIER_OUT"); path != "" {
		return path, nil
	}
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve notifier output path: %w", err)
	}
	return filepath.Join(filepath.Dir(self), "notifier.log"), nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: extensionrpc.HandshakeConfig,
		Plugins:         extensionrpc.PluginMap(&server{}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
