package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/config"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/weekly-shifts/backend/internal/utils"
	"github.com/wneessen/go-mail"
)

var errDeliveriesClosed = errors.New("消息通道已关闭")

// rawMailMessage 延迟解析 data，由邮件类型决定其结构
type rawMailMessage struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

func main() {
	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger := utils.NewLogger("")
		logger.Error().Err(err).Msg("无法读取配置文件")
		return
	}

	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := utils.NewLogger(cfg.Environment).With().Str("worker", "mail").Logger()

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error().Err(err).Msg("无法创建邮件客户端")
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error().Err(err).Msg("无法连接到邮件服务器")
		return
	}

	tmpl, err := template.ParseFiles("./templates/week_published_email.html")
	if err != nil {
		logger.Error().Err(err).Msg("无法解析邮件模板")
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error().Err(err).Msg("无法连接到 RabbitMQ")
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error().Err(err).Msg("无法创建通道")
		return
	}
	defer ch.Close()

	// 声明队列
	q, err := ch.QueueDeclare(
		domain.NotificationQueue, // 队列名称
		true,                     // 是否持久化
		false,                    // 是否自动删除，设置为 false 可以避免没有消费者的时候自动删除队列
		false,                    // 是否独占
		false,                    // 是否不等待
		nil,                      // 额外参数
	)
	if err != nil {
		logger.Error().Err(err).Msg("无法声明队列")
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，由 RabbitMQ 自动分配
		false,  // 手动确认
		false,  // 是否独占队列
		false,  // RabbitMQ 不支持 noLocal，必须为 false
		false,  // 是否不等待
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error().Err(err).Msg("无法消费消息")
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancelWorker := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- consume(ctx, msgs, func(msg amqp.Delivery) {
			handleMessage(logger, cfg, client, tmpl, msg)
		})
	}()

	// 等待 CTRL+C 信号，或者消息通道被 RabbitMQ 关闭
	logger.Info().Msg("等待消息...（按 CTRL+C 退出）")
	select {
	case <-sigChan:
	case err := <-done:
		// 没有消费者的进程继续运行没有意义，非零退出以便被重新拉起
		logger.Error().Err(err).Msg("mail worker 已停止消费")
		cancelWorker()
		ch.Close()
		conn.Close()
		client.Close()
		os.Exit(1)
	}

	// 优雅退出
	logger.Info().Msg("正在关闭 mail worker...")
	cancelWorker()
	<-done
	logger.Info().Msg("mail worker 已成功关闭")
}

// consume 逐条处理消息，ctx 取消时返回 nil，消息通道被关闭时返回 errDeliveriesClosed
func consume(ctx context.Context, msgs <-chan amqp.Delivery, handle func(amqp.Delivery)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			handle(msg)
		}
	}
}

func handleMessage(logger zerolog.Logger, cfg *config.Config, client *mail.Client, tmpl *template.Template, msg amqp.Delivery) {
	logger.Info().Str("message", string(msg.Body)).Msg("收到消息")

	m, err := buildMail(cfg, tmpl, msg.Body)
	if err != nil {
		logger.Error().Err(err).Msg("无法构建邮件")
		_ = msg.Nack(false, false)
		return
	}

	// 发送邮件
	if err := client.DialAndSend(m); err != nil {
		logger.Error().Err(err).Msg("邮件发送失败")
		_ = msg.Nack(false, true) // 将消息重新入队
		return
	}

	// 确认消息
	_ = msg.Ack(false)
}

func buildMail(cfg *config.Config, tmpl *template.Template, body []byte) (*mail.Msg, error) {
	// 对邮件信息反序列化
	mailMessage := rawMailMessage{}
	if err := json.Unmarshal(body, &mailMessage); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(cfg.Email.SMTP.Username); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(mailMessage.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}

	// 根据邮件类型解析数据
	switch mailMessage.Type {
	case domain.MailTypeWeekPublished:
		data := domain.WeekPublishedMailData{}
		if err := json.Unmarshal(mailMessage.Data, &data); err != nil {
			return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
		}
		if err := m.SetBodyHTMLTemplate(tmpl, data); err != nil {
			return nil, fmt.Errorf("无法设置邮件正文: %w", err)
		}
		m.Subject(fmt.Sprintf("Roster published: %s to %s", data.StartDate, data.EndDate))
	default:
		return nil, fmt.Errorf("不支持的邮件类型 %q", mailMessage.Type)
	}

	return m, nil
}
