package logger_test

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/spf13/afero"

	"github.com/angeloszaimis/apptracer/pkg/logger"
)

var _ = Describe("Factory", func() {
	var (
		console *gbytes.Buffer
		notices *gbytes.Buffer
		fs      afero.Fs
		factory *logger.Factory
	)

	BeforeEach(func() {
		console = gbytes.NewBuffer()
		notices = gbytes.NewBuffer()
		fs = afero.NewMemMapFs()
		factory = logger.NewFactory(
			logger.WithConsole(console),
			logger.WithNoticeWriter(notices),
			logger.WithFs(fs),
		)
	})

	Describe("GetLogger", func() {
		It("creates the app_tracer logger with a console sink", func() {
			log := factory.GetLogger(logger.DefaultConfig())
			Expect(log.Name()).To(Equal("app_tracer"))
			Expect(log.Sinks()).To(ConsistOf(logger.SinkInfo{
				Kind:        logger.ConsoleSink,
				Destination: "writer",
				Level:       logger.LevelInfo,
			}))
		})

		DescribeTable("applies the configured level",
			func(raw string, expected slog.Level) {
				log := factory.GetLogger(logger.Config{Level: raw})
				Expect(log.Level()).To(Equal(expected))
				Expect(log.Sinks()[0].Level).To(Equal(expected))
				Expect(notices.Contents()).To(BeEmpty())
			},
			Entry("DEBUG", "DEBUG", logger.LevelDebug),
			Entry("INFO", "info", logger.LevelInfo),
			Entry("WARNING", "warning", logger.LevelWarning),
			Entry("ERROR", "Error", logger.LevelError),
			Entry("CRITICAL", "CRITICAL", logger.LevelCritical),
		)

		DescribeTable("falls back to INFO on invalid levels",
			func(raw string) {
				log := factory.GetLogger(logger.Config{Level: raw})
				Expect(log.Level()).To(Equal(logger.LevelInfo))
				Expect(notices).To(gbytes.Say("Invalid log level"))
				Expect(console.Contents()).To(BeEmpty())
			},
			Entry("INVALID", "INVALID"),
			Entry("numeric", "123"),
			Entry("empty", ""),
		)

		It("prints the invalid level notice once", func() {
			factory.GetLogger(logger.Config{Level: "verbose"})
			factory.GetLogger(logger.Config{Level: "verbose"})
			Expect(strings.Count(string(notices.Contents()), "Invalid log level")).To(Equal(1))
		})

		It("returns the same logger without duplicating the console sink", func() {
			first := factory.GetLogger(logger.DefaultConfig())
			second := factory.GetLogger(logger.DefaultConfig())
			Expect(second).To(BeIdenticalTo(first))
			Expect(second.Sinks()).To(HaveLen(1))

			second.Info("once")
			Expect(strings.Count(string(console.Contents()), "once")).To(Equal(1))
		})

		It("re-applies a changed level to existing sinks", func() {
			log := factory.GetLogger(logger.Config{Level: "DEBUG", ToFile: true, Dir: "/var/log/app"})
			Expect(log.Sinks()).To(HaveLen(2))

			factory.GetLogger(logger.Config{Level: "ERROR", ToFile: true, Dir: "/var/log/app"})
			Expect(log.Level()).To(Equal(logger.LevelError))
			for _, s := range log.Sinks() {
				Expect(s.Level).To(Equal(logger.LevelError))
			}
		})

		It("suppresses lines below a WARNING threshold", func() {
			log := factory.GetLogger(logger.Config{Level: "WARNING"})

			log.Debug("debug line")
			log.Info("info line")
			log.Warning("warning line")
			log.Error("error line")
			log.Critical("critical line")

			out := string(console.Contents())
			Expect(out).NotTo(ContainSubstring("debug line"))
			Expect(out).NotTo(ContainSubstring("info line"))
			Expect(out).To(ContainSubstring("[WARNING]"))
			Expect(out).To(ContainSubstring("[ERROR]"))
			Expect(out).To(ContainSubstring("[CRITICAL]"))
		})
	})

	Describe("file sink", func() {
		It("writes to <dir>/<name>", func() {
			log := factory.GetLogger(logger.Config{Level: "INFO", ToFile: true, Dir: "/logs", FileName: "application.log"})
			log.Info("Test message")
			Expect(log.Close()).To(Succeed())

			data, err := afero.ReadFile(fs, "/logs/application.log")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("Test message"))
			Expect(string(data)).To(HaveSuffix("\n"))
		})

		It("uses application.log when no name is given", func() {
			log := factory.GetLogger(logger.Config{ToFile: true, Dir: "/logs"})
			Expect(log.Sinks()).To(ContainElement(HaveField("Destination", "/logs/application.log")))
		})

		It("attaches one file sink per path", func() {
			cfg := logger.Config{ToFile: true, Dir: "/logs"}
			factory.GetLogger(cfg)
			log := factory.GetLogger(cfg)
			Expect(log.Sinks()).To(HaveLen(2))

			log = factory.GetLogger(logger.Config{ToFile: true, Dir: "/other"})
			Expect(log.Sinks()).To(HaveLen(3))
		})

		It("appends to an existing file", func() {
			Expect(fs.MkdirAll("/logs", 0o755)).To(Succeed())
			Expect(afero.WriteFile(fs, "/logs/application.log", []byte("previous run\n"), 0o644)).To(Succeed())

			log := factory.GetLogger(logger.Config{ToFile: true, Dir: "/logs"})
			log.Info("next run")
			Expect(log.Close()).To(Succeed())

			data, err := afero.ReadFile(fs, "/logs/application.log")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(HavePrefix("previous run\n"))
			Expect(string(data)).To(ContainSubstring("next run"))
		})

		It("detaches file sinks on Close and reattaches on the next configuration", func() {
			cfg := logger.Config{ToFile: true, Dir: "/logs"}
			log := factory.GetLogger(cfg)
			Expect(log.Close()).To(Succeed())
			Expect(log.Sinks()).To(HaveLen(1))

			log.Info("console only")
			factory.GetLogger(cfg)
			Expect(log.Sinks()).To(HaveLen(2))

			data, err := afero.ReadFile(fs, "/logs/application.log")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).NotTo(ContainSubstring("console only"))
		})

		It("resolves relative directories to absolute paths", func() {
			log := factory.GetLogger(logger.Config{ToFile: true, Dir: "logs"})
			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(log.Sinks()).To(ContainElement(HaveField("Destination", filepath.Join(wd, "logs", "application.log"))))
		})
	})

	Describe("unique file names", func() {
		var now time.Time

		BeforeEach(func() {
			now = time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
			factory = logger.NewFactory(
				logger.WithConsole(console),
				logger.WithFs(fs),
				logger.WithClock(func() time.Time { return now }),
			)
		})

		It("prefixes the name with the timestamp", func() {
			log := factory.GetLogger(logger.Config{ToFile: true, UniqueFile: true, Dir: "/logs", FileName: "app.log"})
			Expect(log.Sinks()).To(ContainElement(HaveField("Destination", "/logs/20240309140507_app.log")))
		})

		It("shares the file within the same second", func() {
			cfg := logger.Config{ToFile: true, UniqueFile: true, Dir: "/logs"}
			factory.GetLogger(cfg)
			now = now.Add(400 * time.Millisecond)
			log := factory.GetLogger(cfg)
			Expect(log.Sinks()).To(HaveLen(2))
		})

		It("uses a new file in a later second", func() {
			cfg := logger.Config{ToFile: true, UniqueFile: true, Dir: "/logs"}
			factory.GetLogger(cfg)
			now = now.Add(time.Second)
			log := factory.GetLogger(cfg)
			Expect(log.Sinks()).To(HaveLen(3))
			Expect(log.Sinks()[1].Destination).NotTo(Equal(log.Sinks()[2].Destination))
		})
	})

	Describe("ResolveFileName", func() {
		at := time.Date(2025, 12, 31, 23, 59, 58, 0, time.UTC)

		It("returns the name verbatim", func() {
			Expect(logger.ResolveFileName(logger.Config{FileName: "svc.log"}, at)).To(Equal("svc.log"))
		})

		It("defaults the name", func() {
			Expect(logger.ResolveFileName(logger.Config{}, at)).To(Equal("application.log"))
		})

		It("qualifies unique names", func() {
			Expect(logger.ResolveFileName(logger.Config{UniqueFile: true}, at)).To(Equal("20251231235958_application.log"))
		})
	})

	Describe("resource failures", func() {
		It("stays console only when the directory cannot be created", func() {
			factory = logger.NewFactory(
				logger.WithConsole(console),
				logger.WithFs(afero.NewReadOnlyFs(afero.NewMemMapFs())),
			)
			cfg := logger.Config{ToFile: true, Dir: "/denied"}

			var log *logger.Logger
			Expect(func() { log = factory.GetLogger(cfg) }).NotTo(Panic())
			Expect(log.Sinks()).To(HaveLen(1))
			Expect(console).To(gbytes.Say(`\[WARNING\] .* - cannot create log directory`))

			factory.GetLogger(cfg)
			Expect(strings.Count(string(console.Contents()), "cannot create log directory")).To(Equal(1))

			log.Info("still usable")
			Expect(console).To(gbytes.Say("still usable"))
		})

		It("reports a directory failure once it passes the threshold", func() {
			factory = logger.NewFactory(
				logger.WithConsole(console),
				logger.WithFs(afero.NewReadOnlyFs(afero.NewMemMapFs())),
			)

			factory.GetLogger(logger.Config{Level: "ERROR", ToFile: true, Dir: "/denied"})
			Expect(string(console.Contents())).NotTo(ContainSubstring("cannot create log directory"))

			factory.GetLogger(logger.Config{Level: "DEBUG", ToFile: true, Dir: "/denied"})
			factory.GetLogger(logger.Config{Level: "DEBUG", ToFile: true, Dir: "/denied"})
			Expect(strings.Count(string(console.Contents()), "cannot create log directory")).To(Equal(1))
		})

		It("stays console only when the directory path is a file", func() {
			tmp, err := os.MkdirTemp("", "logger-test-*")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, tmp)

			blocker := filepath.Join(tmp, "blocker")
			Expect(os.WriteFile(blocker, nil, 0o644)).To(Succeed())

			factory = logger.NewFactory(logger.WithConsole(console))
			log := factory.GetLogger(logger.Config{ToFile: true, Dir: filepath.Join(blocker, "logs")})
			Expect(log.Sinks()).To(HaveLen(1))
			Expect(console).To(gbytes.Say("cannot create log directory"))
		})

		It("stays console only when the file cannot be opened", func() {
			tmp, err := os.MkdirTemp("", "logger-test-*")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, tmp)
			Expect(os.Mkdir(filepath.Join(tmp, "application.log"), 0o755)).To(Succeed())

			factory = logger.NewFactory(logger.WithConsole(console))
			log := factory.GetLogger(logger.Config{ToFile: true, Dir: tmp})
			Expect(log.Sinks()).To(HaveLen(1))
			Expect(console).To(gbytes.Say("cannot open log file"))
		})
	})

	Describe("on the OS filesystem", func() {
		It("writes the message to <tmp>/application.log", func() {
			tmp, err := os.MkdirTemp("", "logger-test-*")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, tmp)

			factory = logger.NewFactory(logger.WithConsole(console))
			log := factory.GetLogger(logger.Config{Level: "INFO", ToFile: true, Dir: tmp, FileName: "application.log"})
			log.Info("Test message")
			Expect(log.Close()).To(Succeed())

			data, err := os.ReadFile(filepath.Join(tmp, "application.log"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("Test message"))
		})
	})

	Describe("concurrency", func() {
		It("configures exactly once under concurrent callers", func() {
			cfg := logger.Config{ToFile: true, Dir: "/logs"}
			loggers := make([]*logger.Logger, 32)

			var wg sync.WaitGroup
			for i := range loggers {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					loggers[i] = factory.GetLogger(cfg)
				}(i)
			}
			wg.Wait()

			for _, l := range loggers {
				Expect(l).To(BeIdenticalTo(loggers[0]))
			}
			Expect(loggers[0].Sinks()).To(HaveLen(2))
		})

		It("keeps concurrent lines intact", func() {
			log := factory.GetLogger(logger.Config{ToFile: true, Dir: "/logs"})

			const writers, perWriter = 20, 50
			var wg sync.WaitGroup
			for w := 0; w < writers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWriter; i++ {
						log.Info(fmt.Sprintf("writer %d line %d", w, i))
					}
				}(w)
			}
			wg.Wait()
			Expect(log.Close()).To(Succeed())

			data, err := afero.ReadFile(fs, "/logs/application.log")
			Expect(err).NotTo(HaveOccurred())
			lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
			Expect(lines).To(HaveLen(writers * perWriter))
			for _, line := range lines {
				Expect(line).To(MatchRegexp(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[INFO\] \[[^\]]+\] - writer \d+ line \d+$`))
			}
		})
	})
})
