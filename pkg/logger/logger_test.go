package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/storysprout/pkg/logger"
)

var _ = Describe("NewLoggerWithWriters", func() {
	It("writes console entries with structured fields", func() {
		var buf bytes.Buffer
		l := logger.NewLoggerWithWriters(false, &buf)
		l.Info("beat persisted", zap.String("story_id", "s1"))
		Expect(l.Sync()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("beat persisted"))
		Expect(buf.String()).To(ContainSubstring(`"story_id": "s1"`))
	})

	It("filters debug when not enabled", func() {
		var buf bytes.Buffer
		logger.NewLoggerWithWriters(false, &buf).Debug("hidden")
		Expect(buf.String()).To(BeEmpty())
	})

	It("respects debug level", func() {
		var buf bytes.Buffer
		logger.NewLoggerWithWriters(true, &buf).Debug("shown")
		Expect(buf.String()).To(ContainSubstring("shown"))
	})

	It("fans out to every writer", func() {
		var buf1, buf2 bytes.Buffer
		logger.NewLoggerWithWriters(false, &buf1, &buf2).Warn("both")
		Expect(buf1.String()).To(ContainSubstring("both"))
		Expect(buf2.String()).To(ContainSubstring("both"))
	})
})

var _ = Describe("New", func() {
	It("creates a default text logger", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf))
		l.Info("hello", "key", "value")

		Expect(buf.String()).To(ContainSubstring("hello"))
		Expect(buf.String()).To(ContainSubstring("key=value"))
	})

	It("respects debug level", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("debug msg")
		Expect(buf.String()).To(ContainSubstring("debug msg"))
	})

	It("filters debug when not enabled", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithDebug(false)).Debug("hidden")
		Expect(buf.String()).To(BeEmpty())
	})

	It("creates a JSON logger", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).Info("structured", "count", 42)

		var parsed map[string]any
		Expect(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
		Expect(parsed["msg"]).To(Equal("structured"))
		Expect(parsed["count"]).To(BeNumerically("==", 42))
	})

	It("creates a pretty logger", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithPretty(true)).Info("pretty output")
		Expect(buf.String()).To(ContainSubstring("pretty output"))
	})
})

var _ = Describe("Nop", func() {
	It("discards all output", func() {
		l := logger.Nop()
		Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		Expect(func() {
			l.With("key", "value").WithGroup("g").Info("msg")
		}).NotTo(Panic())
	})
})
