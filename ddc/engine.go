package ddc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-ddcci/protocol"
)

// Engine runs DDC/CI exchanges against one display.
// It encodes commands, applies the protocol delays, retries transient
// failures and decodes replies into typed responses.
//
// Engine holds no state between calls and does no locking; callers must
// serialize calls per display handle.
type Engine struct {
	transport Transport
	config    Config
}

// New creates a new Engine with the given transport and options.
// The transport is bound to one display handle.
//
// Example:
//
//	bus, _ := i2cdev.Open("/dev/i2c-4")
//	engine := ddc.New(bus,
//	    ddc.WithLogger(logger),
//	    ddc.WithMaxAttempts(5),
//	)
func New(t Transport, opts ...Option) *Engine {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Engine{
		transport: t,
		config:    cfg,
	}
}

// Description names the display behind the engine's transport.
// Transports that do not implement Describer are described by their type.
func (e *Engine) Description() string {
	if d, ok := e.transport.(Describer); ok {
		return d.Description()
	}
	return fmt.Sprintf("%T", e.transport)
}

// Discover wraps every display listed by en in an Engine configured with opts.
func Discover(en Enumerator, opts ...Option) ([]*Engine, error) {
	displays, err := en.Displays()
	if err != nil {
		return nil, fmt.Errorf("enumerate displays: %w", err)
	}

	engines := make([]*Engine, 0, len(displays))
	for _, t := range displays {
		engines = append(engines, New(t, opts...))
	}
	return engines, nil
}

// Exchange performs one request/reply round trip:
//  1. Encode the command (encoding errors return before any bus I/O)
//  2. Write the frame to the display
//  3. Wait the reply delay and read the reply, if the command has one
//  4. Decode and validate the reply
//  5. Retry transient failures with backoff, up to MaxAttempts
//  6. Wait the settle delay
//
// Failures are returned as *ExchangeError.
//
// Example:
//
//	resp, err := engine.Exchange(ctx, protocol.GetVCPFeature{Code: protocol.VCPBrightness})
//	if err != nil {
//	    return err
//	}
//	reply := resp.(*protocol.VCPFeatureReply)
func (e *Engine) Exchange(ctx context.Context, cmd protocol.Command) (protocol.Response, error) {
	frame, err := protocol.Encode(protocol.HostAddress, cmd.Payload())
	if err != nil {
		return nil, &ExchangeError{Op: cmd.String(), Err: err}
	}
	raw := frame.Bytes()

	start := e.config.Clock.Now()
	resp, attempts, err := e.run(ctx, cmd, raw)

	// Settle after any exchange that reached the bus. A vanished handle
	// will not be used again.
	if attempts > 0 && !errors.Is(err, ErrTransportGone) {
		e.config.Clock.Sleep(e.settleDelay(cmd))
	}

	e.config.Metrics.recordExchange(commandLabel(cmd), err, e.config.Clock.Now().Sub(start))

	if err != nil {
		e.logError("exchange failed",
			"command", cmd.String(),
			"attempts", attempts,
			"error", err.Error(),
		)
		return nil, &ExchangeError{Op: cmd.String(), Attempts: attempts, Err: err}
	}
	return resp, nil
}

// run drives the attempt loop and returns the number of attempts made.
func (e *Engine) run(ctx context.Context, cmd protocol.Command, raw []byte) (protocol.Response, int, error) {
	var lastErr error
	faults := 0

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, attempt - 1, fmt.Errorf("cancelled: %w", err)
		}

		if attempt > 1 {
			delay := e.retryDelay(attempt - 1)
			e.logDebug("retrying",
				"command", cmd.String(),
				"attempt", attempt,
				"delay", delay.String(),
				"error", lastErr.Error(),
			)
			e.config.Clock.Sleep(delay)
		}

		resp, err := e.attempt(cmd, raw)
		outcome := classify(err)
		e.config.Metrics.recordAttempt(commandLabel(cmd), outcome)

		switch outcome {
		case outcomeOK:
			return resp, attempt, nil
		case outcomeGone, outcomeReject:
			return nil, attempt, err
		case outcomeFault:
			faults++
			if faults > e.config.ProtocolRetries {
				return nil, attempt, fmt.Errorf("%w: %w", ErrProtocolViolation, err)
			}
		}
		lastErr = err
	}

	if protocol.IsProtocolError(lastErr) {
		return nil, e.config.MaxAttempts, fmt.Errorf("%w: %w", ErrProtocolViolation, lastErr)
	}
	return nil, e.config.MaxAttempts, lastErr
}

// attempt performs a single bus round trip.
func (e *Engine) attempt(cmd protocol.Command, raw []byte) (protocol.Response, error) {
	if err := e.transport.Write(protocol.DisplayAddress, raw); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if !cmd.ExpectsReply() {
		return cmd.ParseResponse(nil)
	}

	e.config.Clock.Sleep(e.replyDelay(cmd))

	data, err := e.transport.Read(protocol.DisplayAddress, protocol.MaxFrameSize, e.config.Timing.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	frame, err := protocol.DecodeReply(data)
	if err != nil {
		return nil, err
	}

	// A null message means the display is busy; treat it as no reply.
	if len(frame.Payload) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrTimeout, protocol.ErrNullMessage)
	}

	return cmd.ParseResponse(frame.Payload)
}

// classify maps an attempt error to its outcome label.
func classify(err error) string {
	var (
		unsupported *protocol.UnsupportedFeatureError
		corrupt     *protocol.ChecksumError
	)

	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrTransportGone):
		return outcomeGone
	case errors.As(err, &unsupported):
		return outcomeReject
	case protocol.IsProtocolError(err):
		return outcomeFault
	case errors.Is(err, protocol.ErrNullMessage):
		return outcomeBusy
	case errors.As(err, &corrupt):
		return outcomeCorrupt
	case errors.Is(err, ErrTimeout):
		return outcomeTimeout
	default:
		return outcomeIO
	}
}

func (e *Engine) replyDelay(cmd protocol.Command) time.Duration {
	switch cmd.(type) {
	case protocol.GetCapabilitiesChunk, protocol.TableRead:
		return e.config.Timing.TableReplyDelay
	default:
		return e.config.Timing.ReplyDelay
	}
}

func (e *Engine) settleDelay(cmd protocol.Command) time.Duration {
	if _, ok := cmd.(protocol.SaveCurrentSettings); ok {
		return e.config.Timing.SaveSettingsDelay
	}
	return e.config.Timing.CommandDelay
}

func (e *Engine) retryDelay(retry int) time.Duration {
	return max(NextBackoffDelay(e.config.Backoff, retry), e.config.Timing.CommandDelay)
}

// commandLabel is the low-cardinality metric label of cmd.
func commandLabel(cmd protocol.Command) string {
	switch cmd.(type) {
	case protocol.GetVCPFeature:
		return "get_vcp_feature"
	case protocol.SetVCPFeature:
		return "set_vcp_feature"
	case protocol.GetCapabilitiesChunk:
		return "capabilities"
	case protocol.GetTimingReport:
		return "timing_report"
	case protocol.SaveCurrentSettings:
		return "save_current_settings"
	case protocol.TableRead:
		return "table_read"
	case protocol.TableWrite:
		return "table_write"
	default:
		return fmt.Sprintf("opcode_%02x", cmd.Opcode())
	}
}

// exchangeAs runs cmd and asserts the response type.
func exchangeAs[T protocol.Response](ctx context.Context, e *Engine, cmd protocol.Command) (T, error) {
	var zero T

	resp, err := e.Exchange(ctx, cmd)
	if err != nil {
		return zero, err
	}

	typed, ok := resp.(T)
	if !ok {
		return zero, &ExchangeError{
			Op:  cmd.String(),
			Err: &protocol.UnexpectedReplyError{Operation: cmd.String(), Reason: fmt.Sprintf("response type %T", resp)},
		}
	}
	return typed, nil
}

// GetVCPFeature reads the current and maximum value of a VCP feature.
//
// Example:
//
//	reply, err := engine.GetVCPFeature(ctx, protocol.VCPBrightness)
//	fmt.Printf("brightness %d/%d\n", reply.Current, reply.Max)
func (e *Engine) GetVCPFeature(ctx context.Context, code byte) (*protocol.VCPFeatureReply, error) {
	return exchangeAs[*protocol.VCPFeatureReply](ctx, e, protocol.GetVCPFeature{Code: code})
}

// SetVCPFeature sets the value of a VCP feature.
// The display does not acknowledge the write; read the feature back to confirm.
func (e *Engine) SetVCPFeature(ctx context.Context, code byte, value uint16) error {
	_, err := e.Exchange(ctx, protocol.SetVCPFeature{Code: code, Value: value})
	return err
}

// GetTimingReport reads the display's view of the current video timing.
func (e *Engine) GetTimingReport(ctx context.Context) (*protocol.TimingReport, error) {
	return exchangeAs[*protocol.TimingReport](ctx, e, protocol.GetTimingReport{})
}

// SaveCurrentSettings asks the display to persist its current adjustments.
// The engine waits SaveSettingsDelay afterwards.
func (e *Engine) SaveCurrentSettings(ctx context.Context) error {
	_, err := e.Exchange(ctx, protocol.SaveCurrentSettings{})
	return err
}

// WriteTable writes data to a table VCP feature in fragments of
// MaxFragmentSize bytes at increasing offsets.
// The context is checked between fragments.
func (e *Engine) WriteTable(ctx context.Context, code byte, data []byte) error {
	if len(data) > maxOffset+1 {
		return &ReassemblyError{
			What:  fmt.Sprintf("table 0x%02X", code),
			Bytes: len(data),
			Limit: "16-bit offset space",
		}
	}

	start := e.config.Clock.Now()
	chunks := 0
	for offset := 0; offset < len(data); offset += protocol.MaxFragmentSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		end := min(offset+protocol.MaxFragmentSize, len(data))
		cmd := protocol.TableWrite{Code: code, Offset: uint16(offset), Data: data[offset:end]}
		if _, err := e.Exchange(ctx, cmd); err != nil {
			return fmt.Errorf("write table 0x%02X: %w", code, err)
		}

		chunks++
		e.reportProgress(Progress{
			Phase:       PhaseTableWrite,
			Chunks:      chunks,
			Bytes:       end,
			Offset:      uint16(end & maxOffset),
			Done:        end == len(data),
			ElapsedTime: e.config.Clock.Now().Sub(start),
		})
	}

	e.logDebug("table written",
		"code", fmt.Sprintf("0x%02X", code),
		"bytes", len(data),
		"chunks", chunks,
	)
	return nil
}

// reportProgress calls the progress callback if configured.
func (e *Engine) reportProgress(progress Progress) {
	if e.config.ProgressCallback != nil {
		e.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (e *Engine) logDebug(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (e *Engine) logInfo(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (e *Engine) logError(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Error(msg, keysAndValues...)
	}
}
