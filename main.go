package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/img-hub/img-hub/internal/cache"
	"github.com/img-hub/img-hub/internal/config"
	"github.com/img-hub/img-hub/internal/fetch"
	"github.com/img-hub/img-hub/internal/logging"
	"github.com/img-hub/img-hub/internal/server"
	"github.com/img-hub/img-hub/internal/server/routes"
	"github.com/img-hub/img-hub/internal/version"
)

// cliOptions 是命令行解析结果，run 以它为唯一输入，测试可直接构造。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

// stdOut/stdErr 允许测试替换进程输出。
var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 执行 CLI 主流程并返回退出码。
func run(opts cliOptions) int {
	if opts.showVersion {
		fmt.Fprintln(stdOut, version.Full())
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "配置不可用: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "日志初始化失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.ActionFields("check_config", opts.configPath)
		fields["max_entries"] = cfg.Global.MaxEntries
		fields["allowed_hosts"] = len(cfg.Global.AllowedHosts)
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置检查通过")
		return 0
	}

	// 进程内只构建一套缓存实例，全部请求共享同一份索引与存储。
	imageCache, err := cache.New(cache.Options{
		Dir:          cfg.Global.StoragePath,
		Capacity:     cfg.Global.MaxEntries,
		DefaultExt:   cfg.Global.DefaultExtension,
		FetchTimeout: cfg.Global.FetchTimeout.DurationValue(),
		Fetcher:      fetch.NewHTTPFetcher(fetch.NewClient(cfg.Global.FetchTimeout.DurationValue())),
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存失败: %v\n", err)
		return 1
	}

	fields := logging.ActionFields("startup", opts.configPath)
	fields["storage_path"] = cfg.Global.StoragePath
	fields["max_entries"] = cfg.Global.MaxEntries
	fields["listen_port"] = cfg.Global.ListenPort
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("启动参数就绪")

	if err := startHTTPServer(cfg, imageCache, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务退出: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析命令行参数。-config 的默认值取自 IMG_HUB_CONFIG，
// 两者都缺省时由 config.Load 落到 ./config.toml。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("img-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := cliOptions{}
	fs.StringVar(&opts.configPath, "config", os.Getenv("IMG_HUB_CONFIG"), "配置文件路径，默认取 IMG_HUB_CONFIG 或 ./config.toml")
	fs.BoolVar(&opts.checkOnly, "check-config", false, "校验配置并退出")
	fs.BoolVar(&opts.showVersion, "version", false, "打印版本后退出")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("参数解析失败: %w", err)
	}
	return opts, nil
}

func startHTTPServer(cfg *config.Config, imageCache *cache.Cache, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterImageRoutes(app, routes.ImageRouteOptions{
		Logger:       logger,
		Cache:        imageCache,
		AllowedHosts: cfg.Global.AllowedHosts,
	})
	routes.RegisterCacheRoutes(app, routes.CacheRouteOptions{
		Logger: logger,
		Cache:  imageCache,
	})

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("开始监听")

	return app.Listen(fmt.Sprintf(":%d", port))
}
