package out

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"time"

	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
	apperrors "lectio/internal/platform/errors"
)

type JSONRPCServer struct{}

type JSONRPCClient struct{}

func NewJSONRPCServer() sessionout.IPCServer {
	return &JSONRPCServer{}
}

func NewJSONRPCClient() sessionout.IPCClient {
	return &JSONRPCClient{}
}

type rpcHandler struct {
	h sessionout.IPCHandler
}

// Empty and HistoryArgs are the wire argument types. net/rpc only
// registers methods whose argument and reply types are exported.
type Empty struct{}

type HistoryArgs struct {
	Limit int
}

func (s *rpcHandler) Start(req sessionout.StartRequest, resp *domain.Snapshot) error {
	snap, err := s.h.Start(context.Background(), req)
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) Stop(_ Empty, resp *domain.WrapUp) error {
	wrap, err := s.h.Stop(context.Background())
	if err != nil {
		return err
	}
	*resp = wrap
	return nil
}

func (s *rpcHandler) Snapshot(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.Snapshot(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) WrapUp(_ Empty, resp *domain.WrapUp) error {
	wrap, err := s.h.WrapUp(context.Background())
	if err != nil {
		return err
	}
	*resp = wrap
	return nil
}

func (s *rpcHandler) ReportActivity(_ Empty, _ *Empty) error {
	return s.h.ReportActivity(context.Background())
}

func (s *rpcHandler) ConfirmPresence(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.ConfirmPresence(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) DismissAFK(_ Empty, resp *domain.WrapUp) error {
	wrap, err := s.h.DismissAFK(context.Background())
	if err != nil {
		return err
	}
	*resp = wrap
	return nil
}

func (s *rpcHandler) SkipBreak(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.SkipBreak(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) MicrobreakTake(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.MicrobreakTake(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) MicrobreakEnd(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.MicrobreakEnd(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) MicrobreakPostpone(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.MicrobreakPostpone(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) MicrobreakDisableToday(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.MicrobreakDisableToday(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) IncrementHighlights(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.IncrementHighlights(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) IncrementNotes(_ Empty, resp *domain.Snapshot) error {
	snap, err := s.h.IncrementNotes(context.Background())
	if err != nil {
		return err
	}
	*resp = snap
	return nil
}

func (s *rpcHandler) History(req HistoryArgs, resp *[]domain.Record) error {
	records, err := s.h.History(context.Background(), req.Limit)
	if err != nil {
		return err
	}
	*resp = records
	return nil
}

func (s *rpcHandler) EventsTail(query sessionout.EventQuery, resp *[]domain.Event) error {
	events, err := s.h.EventsTail(context.Background(), query)
	if err != nil {
		return err
	}
	*resp = events
	return nil
}

func (s *rpcHandler) Metrics(_ Empty, resp *domain.Metrics) error {
	m, err := s.h.Metrics(context.Background())
	if err != nil {
		return err
	}
	*resp = m
	return nil
}

func (s *rpcHandler) Shutdown(_ Empty, _ *Empty) error {
	return s.h.Shutdown(context.Background())
}

func (s *JSONRPCServer) Serve(ctx context.Context, socketPath string, handler sessionout.IPCHandler) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName("Lectio", &rpcHandler{h: handler}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

func (c *JSONRPCClient) Start(ctx context.Context, socketPath string, req sessionout.StartRequest) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.Start", req, &resp)
	return resp, err
}

func (c *JSONRPCClient) Stop(ctx context.Context, socketPath string) (domain.WrapUp, error) {
	resp := domain.WrapUp{}
	err := call(ctx, socketPath, "Lectio.Stop", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) Snapshot(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.Snapshot", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) WrapUp(ctx context.Context, socketPath string) (domain.WrapUp, error) {
	resp := domain.WrapUp{}
	err := call(ctx, socketPath, "Lectio.WrapUp", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) ReportActivity(ctx context.Context, socketPath string) error {
	return call(ctx, socketPath, "Lectio.ReportActivity", Empty{}, &Empty{})
}

func (c *JSONRPCClient) ConfirmPresence(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.ConfirmPresence", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) DismissAFK(ctx context.Context, socketPath string) (domain.WrapUp, error) {
	resp := domain.WrapUp{}
	err := call(ctx, socketPath, "Lectio.DismissAFK", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) SkipBreak(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.SkipBreak", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) MicrobreakTake(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.MicrobreakTake", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) MicrobreakEnd(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.MicrobreakEnd", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) MicrobreakPostpone(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.MicrobreakPostpone", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) MicrobreakDisableToday(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.MicrobreakDisableToday", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) IncrementHighlights(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.IncrementHighlights", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) IncrementNotes(ctx context.Context, socketPath string) (domain.Snapshot, error) {
	resp := domain.Snapshot{}
	err := call(ctx, socketPath, "Lectio.IncrementNotes", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) History(ctx context.Context, socketPath string, limit int) ([]domain.Record, error) {
	resp := []domain.Record{}
	err := call(ctx, socketPath, "Lectio.History", HistoryArgs{Limit: limit}, &resp)
	return resp, err
}

func (c *JSONRPCClient) EventsTail(ctx context.Context, socketPath string, query sessionout.EventQuery) ([]domain.Event, error) {
	resp := []domain.Event{}
	err := call(ctx, socketPath, "Lectio.EventsTail", query, &resp)
	return resp, err
}

func (c *JSONRPCClient) Metrics(ctx context.Context, socketPath string) (domain.Metrics, error) {
	resp := domain.Metrics{}
	err := call(ctx, socketPath, "Lectio.Metrics", Empty{}, &resp)
	return resp, err
}

func (c *JSONRPCClient) Shutdown(ctx context.Context, socketPath string) error {
	return call(ctx, socketPath, "Lectio.Shutdown", Empty{}, &Empty{})
}

func call(ctx context.Context, socketPath, method string, args, reply any) error {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return err
	}
	defer client.Close()
	return mapRPCError(client.Call(method, args, reply))
}

func dialClient(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	client := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return client, nil
}

// mapRPCError restores sentinel identity lost on the wire; net/rpc only
// carries the message string back.
func mapRPCError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		apperrors.ErrNoActiveSession,
		apperrors.ErrActiveSessionExists,
		apperrors.ErrInvalidPhase,
		apperrors.ErrNotFound,
		apperrors.ErrInvalidInput,
	} {
		if err.Error() == sentinel.Error() {
			return sentinel
		}
	}
	return err
}
