package webclient

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/hyperdocs/hyperdocs/internal/logging"
)

// Constructor builds a client from a validated, defaulted Config.
type Constructor func(cfg Config, logger logging.Logger) (WebClient, error)

var (
	mu           sync.RWMutex
	constructors = map[Client]Constructor{}
)

func init() {
	Register(ClientNetHTTP, func(cfg Config, logger logging.Logger) (WebClient, error) {
		return NewNetHTTPClient(cfg, logger, nil)
	})
}

func normalize(c Client) Client {
	return Client(strings.ToLower(strings.TrimSpace(string(c))))
}

// Register makes a client available to New. Registering an existing name
// replaces it.
func Register(name Client, ctor Constructor) {
	name = normalize(name)
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	constructors[name] = ctor
}

// Clients lists registered client names, sorted.
func Clients() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(constructors))
	for k := range constructors {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

// Validate reports settings no client can be built with. Zero values are
// valid and fall back to the defaults.
func (c Config) Validate() error {
	names := make([]any, 0)
	for _, n := range Clients() {
		names = append(names, Client(n))
	}
	name := normalize(c.Client)
	return validation.Errors{
		"client":         validation.Validate(name, validation.When(name != "", validation.In(names...).Error("is not a registered client"))),
		"timeout":        validation.Validate(c.Timeout, validation.Min(time.Duration(0)), validation.Max(10*time.Minute)),
		"user_agent":     validation.Validate(c.UserAgent, validation.By(singleLine)),
		"max_body_bytes": validation.Validate(c.MaxBodyBytes, validation.Min(int64(0))),
	}.Filter()
}

func singleLine(v any) error {
	s, _ := v.(string)
	if strings.ContainsAny(s, "\r\n") {
		return validation.NewError("validation_single_line", "must not contain line breaks")
	}
	return nil
}

// New builds the client named by cfg.Client, nethttp when empty, after
// validating cfg and filling in defaults.
func New(cfg Config, logger logging.Logger) (WebClient, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("webclient config: %w", err)
	}
	cfg.Client = normalize(cfg.Client)
	cfg = cfg.withDefaults()

	mu.RLock()
	ctor := constructors[cfg.Client]
	mu.RUnlock()
	if ctor == nil {
		return nil, fmt.Errorf("webclient %q not registered: available clients=%v", cfg.Client, Clients())
	}

	wc, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("construct webclient %q: %w", cfg.Client, err)
	}
	if wc == nil {
		return nil, fmt.Errorf("construct webclient %q: constructor returned nil", cfg.Client)
	}
	logger.Debug("webclient ready",
		logging.Field{Key: "client", Value: string(cfg.Client)},
		logging.Field{Key: "timeout", Value: cfg.Timeout.String()},
		logging.Field{Key: "user_agent", Value: cfg.UserAgent})
	return wc, nil
}
