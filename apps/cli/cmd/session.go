package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/easyhttp/packages/core/config"
	easyhttp "github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/abdul-hamid-achik/easyhttp/packages/logging"
	"github.com/abdul-hamid-achik/easyhttp/packages/mock"
	"github.com/abdul-hamid-achik/easyhttp/packages/record"
	"github.com/abdul-hamid-achik/easyhttp/packages/trace"
	"github.com/abdul-hamid-achik/easyhttp/packages/transport"
	"go.uber.org/zap"
)

// sessionOptions says how to assemble a client for one command.
type sessionOptions struct {
	mockFile string // answer from mock routes instead of the network
	record   bool   // keep every exchange for --record and --history
	verbose  int
}

// session is a configured client plus what was wired around it.
type session struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *easyhttp.Client
	recorder *record.Recorder
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	return cfg, nil
}

func newLogger(verbose int) *zap.Logger {
	cfg := logging.DefaultConfig()
	if verbose > 1 {
		cfg = logging.DevelopmentConfig()
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func colorDisabled(cfg *config.Config) bool {
	return noColorFlag || (cfg != nil && cfg.GetNoColor())
}

// clientOptions turns the config and global flags into client options on
// top of base, the dispatcher that talks to the network.
func clientOptions(cfg *config.Config, logger *zap.Logger, base transport.Dispatcher) ([]easyhttp.ClientOption, error) {
	opts := []easyhttp.ClientOption{
		easyhttp.WithTransport(base),
		easyhttp.WithConfig(cfg),
		easyhttp.WithTracer(trace.New(logger)),
	}
	if logLevelFlag != "" {
		level, err := trace.ParseLevel(logLevelFlag)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errUsage, err)
		}
		opts = append(opts, func(c *easyhttp.Client) { c.DefaultLogLevel(level) })
	}
	return opts, nil
}

func newNetTransport(cfg *config.Config) *transport.NetTransport {
	if cfg.MaxRedirects > 0 {
		return transport.NewNetTransport(transport.WithMaxRedirects(cfg.MaxRedirects))
	}
	return transport.NewNetTransport()
}

func newSession(so sessionOptions) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: newLogger(so.verbose)}

	network := newNetTransport(cfg)
	opts, err := clientOptions(cfg, s.logger, network)
	if err != nil {
		return nil, err
	}

	var upstream transport.Dispatcher
	if so.mockFile != "" {
		responder, err := mock.Load(so.mockFile, mock.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errConfig, err)
		}
		s.logger.Debug("answering from mock routes", zap.String("file", so.mockFile), zap.Int("routes", len(responder.Routes())))
		upstream = responder
	}
	if so.record {
		next := upstream
		if next == nil {
			next = network
		}
		s.recorder = record.New(next, record.WithLogger(s.logger))
		upstream = s.recorder
	}
	if upstream != nil {
		opts = append(opts, easyhttp.WithInterceptor(upstream))
	}

	s.client = easyhttp.New(opts...)
	return s, nil
}

// lastRecording returns the most recent exchange seen by the recorder.
func (s *session) lastRecording() (record.Recording, bool) {
	if s.recorder == nil {
		return record.Recording{}, false
	}
	recs := s.recorder.Recordings()
	if len(recs) == 0 {
		return record.Recording{}, false
	}
	return recs[len(recs)-1], true
}

func (s *session) Close() {
	_ = s.logger.Sync()
}
