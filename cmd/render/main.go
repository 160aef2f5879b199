// render 离线渲染已保存的课表 JSON，不依赖数据库与排课服务
//
//	render -timetable grade-horaria.json -input dados-entrada.json -format pdf
//	render -timetable grade-horaria.json -format view -semesters 1 -mode daily -day monday
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"cefet-timetable/backend/config"
	"cefet-timetable/backend/internal/dto"
	"cefet-timetable/backend/internal/service"
	"cefet-timetable/backend/internal/timetable"
	applogger "cefet-timetable/backend/pkg/logger"
)

func main() {
	var (
		timetablePath = flag.String("timetable", "", "课表 JSON 文件（必填）")
		inputPath     = flag.String("input", "", "输入数据 JSON 文件（可选）")
		format        = flag.String("format", "pdf", "输出格式: pdf | xlsx | view")
		semesters     = flag.String("semesters", "", "学期列表，如 1,2（pdf/xlsx 覆盖页序列，view 取第一个）")
		mode          = flag.String("mode", "weekly", "视图模式: weekly | daily（仅 view）")
		day           = flag.String("day", "", "日视图的星期键（仅 view）")
		out           = flag.String("out", "", "输出文件，默认按格式生成文件名；view 默认输出到标准输出")
		timezone      = flag.String("tz", "America/Sao_Paulo", "生成日期使用的时区")
	)
	flag.Parse()

	logger, err := applogger.NewLogger(&config.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *timetablePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	s, input, err := load(*timetablePath, *inputPath)
	if err != nil {
		logger.Fatal("读取文件失败", zap.Error(err))
	}
	sems, err := parseSemesters(*semesters)
	if err != nil {
		logger.Fatal("学期参数无效", zap.String("semesters", *semesters), zap.Error(err))
	}

	exportCfg := &config.ExportConfig{Timezone: *timezone, Compress: true}
	now := time.Now().In(exportCfg.Location())

	var (
		data []byte
		name string
	)
	switch *format {
	case "pdf":
		buf, fileName, cerr := service.NewPDFComposer(exportCfg, logger).
			Compose(context.Background(), s, input, service.PDFOptions{Semesters: sems, Now: now})
		if cerr != nil {
			logger.Fatal("生成 PDF 失败", zap.Error(cerr))
		}
		data, name = buf.Bytes(), fileName
	case "xlsx":
		plan := service.PlanDocument(s, input, sems, now)
		buf, xerr := service.RenderXLSX(plan)
		if xerr != nil {
			logger.Fatal("生成 Excel 失败", zap.Error(xerr))
		}
		data, name = buf.Bytes(), strings.TrimSuffix(plan.FileName, ".pdf")+".xlsx"
	case "view":
		q := &dto.ViewQuery{Mode: *mode, Day: *day}
		if len(sems) > 0 {
			q.Semester = strconv.Itoa(sems[0])
		}
		view, verr := service.BuildView(s, q)
		if verr != nil {
			logger.Fatal("构建视图失败", zap.Error(verr))
		}
		raw, jerr := json.Marshal(view)
		if jerr != nil {
			logger.Fatal("序列化视图失败", zap.Error(jerr))
		}
		var pretty bytes.Buffer
		_ = json.Indent(&pretty, raw, "", "  ")
		pretty.WriteByte('\n')
		if *out == "" {
			_, _ = os.Stdout.Write(pretty.Bytes())
			return
		}
		data, name = pretty.Bytes(), *out
	default:
		logger.Fatal("不支持的输出格式", zap.String("format", *format))
	}

	if *out != "" {
		name = *out
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		logger.Fatal("写入输出文件失败", zap.String("path", name), zap.Error(err))
	}
	logger.Info("渲染完成",
		zap.String("format", *format),
		zap.String("path", name),
		zap.Int("bytes", len(data)),
		zap.Int("classes", s.ClassCount()),
	)
}

func load(timetablePath, inputPath string) (timetable.ScheduleByDay, timetable.InputSummary, error) {
	raw, err := os.ReadFile(timetablePath)
	if err != nil {
		return timetable.ScheduleByDay{}, timetable.InputSummary{}, err
	}
	s, err := timetable.ParseSchedule(raw)
	if err != nil {
		return timetable.ScheduleByDay{}, timetable.InputSummary{}, fmt.Errorf("%s: %w", timetablePath, err)
	}
	if inputPath == "" {
		return s, timetable.InputSummary{}, nil
	}

	raw, err = os.ReadFile(inputPath)
	if err != nil {
		return s, timetable.InputSummary{}, err
	}
	input, err := timetable.ParseInput(raw)
	if err != nil {
		return s, timetable.InputSummary{}, fmt.Errorf("%s: %w", inputPath, err)
	}
	return s, input, nil
}

func parseSemesters(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("学期编号无效: %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
