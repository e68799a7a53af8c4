package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/storysprout/cmd/storysprout/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	execute := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "storysprout-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// A local .storysprout dir takes precedence over the home dir.
		err = os.MkdirAll(filepath.Join(tmpDir, ".storysprout"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	Describe("set subcommand", func() {
		It("writes the config file", func() {
			out, err := execute("set", "ai.provider", "openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("ai.provider"))
			Expect(out).To(ContainSubstring("openai"))

			data, err := os.ReadFile(filepath.Join(tmpDir, ".storysprout", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`provider = "openai"`))
		})

		It("masks API keys in its output", func() {
			out, err := execute("set", "ai.anthropic.api_key", "sk-ant-secret-9876")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("9876"))
			Expect(out).NotTo(ContainSubstring("sk-ant-secret"))
		})

		It("rejects unknown keys", func() {
			_, err := execute("set", "invalid_key", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("rejects invalid integer values", func() {
			_, err := execute("set", "ai.openai.max_tokens", "lots")
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid bool values", func() {
			_, err := execute("set", "events.enabled", "maybe")
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			_, err := execute("set", "ai.provider")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			_, err := execute("set", "storage.driver", "postgres")
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("get", "storage.driver")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("postgres"))
		})

		It("reports the default for a key that was never set", func() {
			out, err := execute("get", "api.listen")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(":8081"))
		})

		It("masks API keys", func() {
			_, err := execute("set", "ai.gemini.api_key", "gemini-key-4321")
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("get", "ai.gemini.api_key")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("4321"))
			Expect(out).NotTo(ContainSubstring("gemini-key"))
		})

		It("rejects unknown keys", func() {
			_, err := execute("get", "invalid_key")
			Expect(err).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			_, err := execute("get")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key when no config exists", func() {
			out, err := execute("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("ai.provider"))
			Expect(out).To(ContainSubstring("storage.sqlite_path"))
			Expect(out).To(ContainSubstring("client.api_target"))
			Expect(out).To(ContainSubstring("(unset)"))
		})

		It("shows stored values", func() {
			_, err := execute("set", "events.topic", "bedtime.beats")
			Expect(err).NotTo(HaveOccurred())

			out, err := execute("list")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("bedtime.beats"))
		})

		It("rejects any arguments", func() {
			_, err := execute("list", "extra")
			Expect(err).To(HaveOccurred())
		})
	})
})
