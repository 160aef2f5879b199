package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cefet-timetable/backend/config"
	apperrors "cefet-timetable/backend/pkg/errors"
)

// ── 排课服务调用错误 ──

var (
	ErrSchedulerUnavailable = apperrors.ErrUnavailable
	ErrSchedulerRejected    = apperrors.ErrRejected
	ErrSchedulerBadResponse = apperrors.ErrBadResponse
)

const (
	schedulerOp           = "scheduler.generate"
	schedulerPath         = "/generate-timetable"
	defaultSchedulerLimit = 10 << 20
	// 错误日志中保留的上游响应体长度
	bodyExcerptSize = 512
)

// SchedulerClient 外部排课服务客户端
//
// 排课算法本身由外部服务实现；这里只负责转发输入并校验响应。
type SchedulerClient interface {
	// Generate 提交输入数据，返回排课服务的原始响应 JSON
	Generate(ctx context.Context, input []byte) (json.RawMessage, error)
}

type httpSchedulerClient struct {
	endpoint string
	client   *http.Client
	maxSize  int64
	logger   *zap.Logger
}

// NewSchedulerClient 创建基于 HTTP 的排课服务客户端
func NewSchedulerClient(cfg *config.SchedulerConfig, logger *zap.Logger) SchedulerClient {
	maxSize := cfg.MaxResponseSize
	if maxSize <= 0 {
		maxSize = defaultSchedulerLimit
	}
	return &httpSchedulerClient{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + schedulerPath,
		client:   &http.Client{Timeout: cfg.Timeout},
		maxSize:  maxSize,
		logger:   logger,
	}
}

func (c *httpSchedulerClient) Generate(ctx context.Context, input []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(input))
	if err != nil {
		return nil, apperrors.New(apperrors.KindUnavailable, schedulerOp, "Erro de conexão. Tente novamente.", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("排课服务请求失败",
			zap.String("endpoint", c.endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	// 多读 1 字节用于判断是否超限
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("排课服务返回错误状态",
			zap.Int("status", resp.StatusCode),
			zap.String("body", excerpt(body)),
		)
		e := apperrors.New(apperrors.KindRejected, schedulerOp,
			"Falha ao gerar horário. Por favor, verifique seus dados e tente novamente.",
			fmt.Errorf("upstream body: %s", excerpt(body)))
		e.Status = resp.StatusCode
		return nil, e
	}

	if int64(len(body)) > c.maxSize {
		return nil, apperrors.New(apperrors.KindBadResponse, schedulerOp,
			"Resposta do serviço de horários excede o tamanho permitido.",
			fmt.Errorf("响应体超过 %d 字节", c.maxSize))
	}
	if !json.Valid(body) {
		c.logger.Error("排课服务响应不是合法 JSON", zap.String("body", excerpt(body)))
		return nil, apperrors.New(apperrors.KindBadResponse, schedulerOp,
			"Resposta inválida do serviço de horários.", errors.New("invalid JSON"))
	}

	c.logger.Info("排课服务调用成功",
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return json.RawMessage(body), nil
}

// classifyTransportError 将传输层错误归类为不可达
//
// 超时、连接被拒、域名解析失败给出不同提示，其余统一按连接错误处理。
func classifyTransportError(err error) error {
	msg := "Erro de conexão. Tente novamente."
	var (
		netErr net.Error
		dnsErr *net.DNSError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		msg = "O serviço de horários não respondeu a tempo. Tente novamente."
	case errors.Is(err, syscall.ECONNREFUSED):
		msg = "Erro de conexão: serviço de horários indisponível."
	case errors.As(err, &dnsErr):
		msg = "Erro de conexão: endereço do serviço de horários não encontrado."
	}
	return apperrors.New(apperrors.KindUnavailable, schedulerOp, msg, err)
}

func excerpt(body []byte) string {
	if len(body) <= bodyExcerptSize {
		return string(body)
	}
	return string(body[:bodyExcerptSize]) + "..."
}
