package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slog"

	"github.com/a-h/clazylsp/messages"
	"github.com/a-h/clazylsp/protocol"
)

func NewMux(log *slog.Logger, r io.Reader, w io.Writer) *Mux {
	return &Mux{
		reader:               bufio.NewReader(r),
		concurrencyLimit:     4,
		methodHandlers:       map[string]MethodHandler{},
		notificationHandlers: map[string]NotificationHandler{},
		writer:               bufio.NewWriter(w),
		writeLock:            &sync.Mutex{},
		pending:              map[string]chan protocol.Message{},
		pendingLock:          &sync.Mutex{},
		log:                  log,
		error: func(err error) {
			return
		},
	}
}

// Mux reads JSON-RPC messages and dispatches them to handlers.
//
// Notifications are handled one at a time, in the order they arrive, so that
// document changes are never reordered. Requests are handled concurrently.
type Mux struct {
	reader               *bufio.Reader
	concurrencyLimit     int64
	methodHandlers       map[string]MethodHandler
	notificationHandlers map[string]NotificationHandler
	writer               *bufio.Writer
	writeLock            *sync.Mutex
	pending              map[string]chan protocol.Message
	pendingLock          *sync.Mutex
	lastID               int64
	log                  *slog.Logger
	error                func(err error)
}

type MethodHandler func(ctx context.Context, params json.RawMessage) (result any, err error)
type NotificationHandler func(ctx context.Context, params json.RawMessage) (err error)

func (m *Mux) HandleMethod(name string, method MethodHandler) {
	m.methodHandlers[name] = method
}

func (m *Mux) HandleNotification(name string, notification NotificationHandler) {
	m.notificationHandlers[name] = notification
}

// OnError is called when a handler fails, or a response can't be written.
func (m *Mux) OnError(f func(err error)) {
	m.error = f
}

// Notify sends a notification to the client.
func (m *Mux) Notify(method string, params any) (err error) {
	return m.write(protocol.NewNotification(method, params))
}

// Call sends a request to the client and waits for the response, which is
// unmarshalled into result.
func (m *Mux) Call(ctx context.Context, method string, params any, result any) (err error) {
	id := json.RawMessage(strconv.Quote(fmt.Sprintf("clazylsp-%d", atomic.AddInt64(&m.lastID, 1))))
	key := string(id)
	responses := make(chan protocol.Message, 1)
	m.pendingLock.Lock()
	m.pending[key] = responses
	m.pendingLock.Unlock()
	defer func() {
		m.pendingLock.Lock()
		delete(m.pending, key)
		m.pendingLock.Unlock()
	}()

	if err = m.write(protocol.NewRequest(&id, method, params)); err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-responses:
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err = json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("invalid %s response: %w", method, err)
		}
		return nil
	}
}

func (m *Mux) write(msg any) (err error) {
	m.writeLock.Lock()
	defer m.writeLock.Unlock()
	return protocol.Write(m.writer, msg)
}

// Process reads messages until the client sends the exit notification, or
// the input is closed.
func (m *Mux) Process(ctx context.Context) (err error) {
	// Handle initialization.
	for {
		msg, err := protocol.Read(m.reader)
		if err != nil {
			return err
		}
		if msg.IsNotification() {
			if msg.Method != messages.ExitNotification {
				// Drop notifications sent before initialization.
				m.log.Warn("dropping notification sent before initialization", slog.String("method", msg.Method))
				continue
			}
			m.handleNotification(ctx, msg)
			return nil
		}
		if msg.IsResponse() {
			continue
		}
		if msg.Method != messages.InitializeMethod {
			// Return an error if methods used before initialization.
			m.log.Warn("the client sent a method before initialization", slog.String("method", msg.Method))
			if err = m.write(protocol.NewResponseError(msg.ID, protocol.ErrServerNotInitialized)); err != nil {
				return err
			}
			continue
		}
		m.handleRequestResponse(ctx, msg)
		break
	}
	m.log.Info("initialization complete")

	// Handle standard flow.
	var wg sync.WaitGroup
	defer wg.Wait()
	sem := make(chan struct{}, m.concurrencyLimit)
	for {
		msg, err := protocol.Read(m.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch {
		case msg.IsResponse():
			m.handleResponse(msg)
		case msg.IsNotification():
			m.handleNotification(ctx, msg)
			if msg.Method == messages.ExitNotification {
				return nil
			}
		default:
			wg.Add(1)
			go func(msg protocol.Message) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				m.handleRequestResponse(ctx, msg)
			}(msg)
		}
	}
}

func (m *Mux) handleResponse(msg protocol.Message) {
	key := string(*msg.ID)
	m.pendingLock.Lock()
	responses, ok := m.pending[key]
	m.pendingLock.Unlock()
	if !ok {
		m.log.Warn("dropping response to unknown request", slog.String("id", key))
		return
	}
	responses <- msg
}

func (m *Mux) handleNotification(ctx context.Context, msg protocol.Message) {
	log := m.log.With(slog.String("method", msg.Method))
	nh, ok := m.notificationHandlers[msg.Method]
	if !ok {
		if strings.HasPrefix(msg.Method, "$/") {
			// Optional protocol notifications, such as $/cancelRequest.
			log.Debug("notification not handled")
			return
		}
		log.Warn("notification not handled")
		return
	}
	// We don't need to notify clients if the notification results in an error.
	if err := nh(ctx, msg.Params); err != nil && m.error != nil {
		log.Error("failed to handle notification", slog.Any("error", err))
		m.error(err)
	}
}

func (m *Mux) handleRequestResponse(ctx context.Context, msg protocol.Message) {
	log := m.log.With(slog.Any("id", msg.ID), slog.String("method", msg.Method))
	mh, ok := m.methodHandlers[msg.Method]
	if !ok {
		log.Error("method not found")
		if err := m.write(protocol.NewResponseError(msg.ID, protocol.ErrMethodNotFound)); err != nil {
			log.Error("failed to respond", slog.Any("error", err))
			m.error(fmt.Errorf("failed to respond: %w", err))
		}
		return
	}
	var res protocol.Response
	result, err := mh(ctx, msg.Params)
	if err != nil {
		log.Error("failed to handle", slog.Any("error", err))
		res = protocol.NewResponseError(msg.ID, err)
	} else {
		res = protocol.NewResponse(msg.ID, result)
	}
	if err = m.write(res); err != nil {
		log.Error("failed to respond", slog.Any("error", err))
		m.error(fmt.Errorf("failed to respond: %w", err))
	}
}
