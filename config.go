//go:build linux

package lio

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/lio/pkg/liburing"
	"github.com/joho/godotenv"
)

const (
	EnvEntries        = "LIO_ENTRIES"
	EnvSetupFlags     = "LIO_SETUP_FLAGS"
	EnvPollInterval   = "LIO_POLL_INTERVAL"
	EnvIOWQMaxWorkers = "LIO_IOWQ_MAX_WORKERS"
	EnvPollerCPU      = "LIO_POLLER_CPU"
)

// LoadOptions
// builds options from dotenv files and the process environment, the environment wins.
// Without filenames only the environment is read.
//
//	LIO_ENTRIES=1024
//	LIO_SETUP_FLAGS=SINGLE_ISSUER|COOP_TASKRUN
//	LIO_POLL_INTERVAL=500us
//	LIO_IOWQ_MAX_WORKERS=4,16
//	LIO_POLLER_CPU=2
func LoadOptions(filenames ...string) ([]Option, error) {
	values := make(map[string]string)
	if len(filenames) > 0 {
		read, err := godotenv.Read(filenames...)
		if err != nil {
			return nil, configError("read env files failed", err)
		}
		values = read
	}
	for _, key := range []string{EnvEntries, EnvSetupFlags, EnvPollInterval, EnvIOWQMaxWorkers, EnvPollerCPU} {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	var options []Option
	if v := strings.TrimSpace(values[EnvEntries]); v != "" {
		entries, err := strconv.Atoi(v)
		if err != nil {
			return nil, configError("invalid "+EnvEntries, err)
		}
		options = append(options, WithEntries(entries))
	}
	if v := strings.TrimSpace(values[EnvSetupFlags]); v != "" {
		options = append(options, WithFlags(liburing.ParseSetupFlags(v)))
	}
	if v := strings.TrimSpace(values[EnvPollInterval]); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, configError("invalid "+EnvPollInterval, err)
		}
		options = append(options, WithPollInterval(interval))
	}
	if v := strings.TrimSpace(values[EnvIOWQMaxWorkers]); v != "" {
		bounded, unbounded, err := parseWorkers(v)
		if err != nil {
			return nil, configError("invalid "+EnvIOWQMaxWorkers, err)
		}
		options = append(options, WithIOWQMaxWorkers(bounded, unbounded))
	}
	if v := strings.TrimSpace(values[EnvPollerCPU]); v != "" {
		cpu, err := strconv.Atoi(v)
		if err != nil {
			return nil, configError("invalid "+EnvPollerCPU, err)
		}
		options = append(options, WithPollerCPU(cpu))
	}
	return options, nil
}

func parseWorkers(s string) (bounded uint, unbounded uint, err error) {
	first, second, found := strings.Cut(s, ",")
	n, err := strconv.ParseUint(strings.TrimSpace(first), 10, 32)
	if err != nil {
		return
	}
	bounded = uint(n)
	if !found {
		return
	}
	n, err = strconv.ParseUint(strings.TrimSpace(second), 10, 32)
	if err != nil {
		return
	}
	unbounded = uint(n)
	return
}

func configError(msg string, cause error) error {
	return errors.New(
		msg,
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, errMetaOpConfig),
		errors.WithWrap(cause),
	)
}
