package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/config"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/repository"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/seed"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/service"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var week string
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 为指定周插入随机班次, 2: 从 CSV 文件导入班次)")
	flag.IntVar(&n, "n", 10, "要插入的随机班次数量")
	flag.StringVar(&week, "week", time.Now().Format("2006-01-02"), "随机班次所在的周，可以是该周的任意一天")
	flag.StringVar(&file, "file", "", "CSV 文件路径，列为 name,date,startTime,endTime")
	flag.Parse()

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger := utils.NewLogger("")
		logger.Error().Err(err).Msg("无法读取配置文件")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)

	if cfg.Database.Driver != config.DriverPostgres {
		logger.Error().Str("driver", cfg.Database.Driver).Msg("seed 只能写入 PostgreSQL")
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error().Err(err).Msg("无法创建数据库连接池")
		return
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error().Err(err).Msg("无法连接到数据库")
		return
	}

	// 创建 service
	repo := repository.NewRepository(cfg, dbpool)
	shifts := service.NewShiftService(repo, logger)

	// 执行操作
	switch op {
	case 0:
		logger.Error().Msg("未指定操作")
	case 1:
		cnt, err := seed.SeedRandomWeek(context.Background(), shifts, week, n, logger)
		if err != nil {
			logger.Error().Err(err).Msg("无法生成随机班次")
			return
		}
		logger.Info().Int("count", cnt).Str("week", week).Msg("成功插入随机班次")
	case 2:
		if file == "" {
			logger.Error().Msg("请使用 -file 指定 CSV 文件")
			return
		}
		f, err := os.Open(file)
		if err != nil {
			logger.Error().Err(err).Msg("打开文件失败")
			return
		}
		defer f.Close()

		result, err := seed.ImportShifts(context.Background(), shifts, f, logger)
		if err != nil {
			logger.Error().Err(err).Int("created", result.Created).Msg("导入中断")
			return
		}
		logger.Info().Int("created", result.Created).Int("skipped", len(result.Skipped)).Msg("导入完成")
	default:
		logger.Error().Int("op", op).Msg("不支持的操作")
	}
}
