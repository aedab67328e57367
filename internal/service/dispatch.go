package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-llm/internal/attachment"
	"chat-llm/internal/domain"
	"chat-llm/internal/llm"
	"chat-llm/internal/metrics"
	"chat-llm/internal/notify"
	"chat-llm/internal/repository"
)

var (
	ErrDispatcherNotConfigured = errors.New("dispatcher not configured")
	ErrEmptyContent            = errors.New("message content empty")
	ErrContentTooLong          = errors.New("message content too long")
)

// SendOptions acompaña a un envío: búsqueda web, system prompt y adjuntos.
type SendOptions struct {
	WebSearch    bool
	SystemPrompt string
	Attachments  []attachment.Input
}

// QueuedSend es una unidad de trabajo pendiente en la cola de despacho.
type QueuedSend struct {
	ID         string      `json:"id"`
	ChatID     string      `json:"chat_id"`
	Content    string      `json:"content"`
	Options    SendOptions `json:"-"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
}

// Status refleja el estado observable de la cola.
type Status struct {
	Queued     int    `json:"queued"`
	Processing bool   `json:"processing"`
	LastError  string `json:"last_error,omitempty"`
}

// Searcher es el colaborador de búsqueda web; un fallo degrada a contexto vacío.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// Ingestor es el pipeline de adjuntos invocado durante el envío.
type Ingestor interface {
	Ingest(ctx context.Context, chatID string, in attachment.Input) (domain.Attachment, error)
}

// Dispatcher serializa los envíos de mensajes hacia el modelo: FIFO estricto,
// a lo sumo una request en vuelo, y exactamente una mutación de estado por
// request (mensaje del asistente o error notificado, nunca ambos ni ninguno).
type Dispatcher struct {
	logger     *zap.Logger
	chats      repository.ChatRepository
	llmClient  llm.Client
	contextSvc ContextService
	searcher   Searcher
	ingestor   Ingestor
	notifier   *notify.Notifier
	maxContent int

	mu      sync.Mutex
	queue   []QueuedSend
	running bool
	loading bool
	lastErr string
	idleCh  chan struct{}
}

func NewDispatcher(
	logger *zap.Logger,
	chats repository.ChatRepository,
	llmClient llm.Client,
	contextSvc ContextService,
	searcher Searcher,
	ingestor Ingestor,
	notifier *notify.Notifier,
	maxContentLength int,
) *Dispatcher {
	if maxContentLength <= 0 {
		maxContentLength = 4000
	}
	idleCh := make(chan struct{})
	close(idleCh)
	return &Dispatcher{
		logger:     logger,
		chats:      chats,
		llmClient:  llmClient,
		contextSvc: contextSvc,
		searcher:   searcher,
		ingestor:   ingestor,
		notifier:   notifier,
		maxContent: maxContentLength,
		idleCh:     idleCh,
	}
}

// Submit valida el contenido y encola el envío. La validación falla
// sincrónicamente; todo fallo posterior se reporta como notificación.
func (d *Dispatcher) Submit(ctx context.Context, chatID, content string, opts SendOptions) (QueuedSend, error) {
	if d == nil || d.chats == nil || d.llmClient == nil {
		return QueuedSend{}, ErrDispatcherNotConfigured
	}

	content = strings.TrimSpace(content)
	if content == "" {
		d.notify(domain.NotificationError, "el mensaje está vacío")
		return QueuedSend{}, ErrEmptyContent
	}
	if len(content) > d.maxContent {
		d.notify(domain.NotificationError, fmt.Sprintf("el mensaje supera el máximo de %d caracteres", d.maxContent))
		return QueuedSend{}, ErrContentTooLong
	}

	if _, err := d.chats.GetByID(ctx, chatID); err != nil {
		return QueuedSend{}, fmt.Errorf("get chat: %w", err)
	}

	send := QueuedSend{
		ID:         uuid.NewString(),
		ChatID:     chatID,
		Content:    content,
		Options:    opts,
		EnqueuedAt: time.Now().UTC(),
	}

	d.mu.Lock()
	d.queue = append(d.queue, send)
	metrics.QueueDepth.Set(float64(len(d.queue)))
	if !d.running {
		d.running = true
		d.idleCh = make(chan struct{})
		go d.drain()
	}
	d.mu.Unlock()

	return send, nil
}

// drain es el único worker: consume la cola en orden hasta vaciarla y vuelve
// a idle. El estado running hace inspeccionable el invariante de un solo
// envío en vuelo.
func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.running = false
			close(d.idleCh)
			d.mu.Unlock()
			return
		}
		send := d.queue[0]
		d.queue = d.queue[1:]
		metrics.QueueDepth.Set(float64(len(d.queue)))
		d.mu.Unlock()

		d.process(send)
	}
}

func (d *Dispatcher) process(send QueuedSend) {
	ctx := context.Background()
	start := time.Now()

	d.setLoading(true)
	defer func() {
		d.setLoading(false)
		metrics.SendDuration.Observe(time.Since(start).Seconds())
	}()

	// Actualización optimista: el mensaje del usuario entra al historial
	// antes de la llamada de red.
	userMsg := domain.Message{
		ID:        uuid.NewString(),
		ChatID:    send.ChatID,
		Role:      domain.RoleUser,
		Content:   send.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.chats.AppendMessage(ctx, send.ChatID, userMsg); err != nil {
		d.failSend(send, "no se pudo registrar el mensaje", err)
		return
	}

	if len(send.Options.Attachments) > 0 && d.ingestor != nil {
		d.ingestAttachments(ctx, send, userMsg.ID)
	}

	searchContext, sources := d.searchContext(ctx, send)

	turns, err := d.contextSvc.BuildTurns(ctx, send.ChatID)
	if err != nil {
		d.failSend(send, "no se pudo armar el contexto", err)
		return
	}
	if searchContext != "" {
		turns = append([]llm.Turn{{Role: domain.RoleUser, Content: searchContext}}, turns...)
	}

	completion, err := d.llmClient.Complete(ctx, turns, llm.Options{SystemPrompt: send.Options.SystemPrompt})
	if err != nil {
		d.failSend(send, "no se pudo generar la respuesta del modelo", err)
		return
	}

	assistantMsg := domain.Message{
		ID:      uuid.NewString(),
		ChatID:  send.ChatID,
		Role:    domain.RoleAssistant,
		Content: completion.Content,
		Metadata: &domain.MessageMetadata{
			Model:        completion.Model,
			StopReason:   completion.StopReason,
			WebSearch:    send.Options.WebSearch,
			Sources:      sources,
			ProcessingMS: time.Since(start).Milliseconds(),
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := d.chats.AppendMessage(ctx, send.ChatID, assistantMsg); err != nil {
		d.failSend(send, "no se pudo registrar la respuesta", err)
		return
	}

	metrics.SendsTotal.WithLabelValues("ok").Inc()
	if d.logger != nil {
		d.logger.Info("send processed",
			zap.String("send_id", send.ID),
			zap.String("chat_id", send.ChatID),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// ingestAttachments corre el pipeline por archivo; un adjunto rechazado se
// notifica y el envío continúa con los que pasaron.
func (d *Dispatcher) ingestAttachments(ctx context.Context, send QueuedSend, messageID string) {
	ready := make([]domain.Attachment, 0, len(send.Options.Attachments))
	for _, in := range send.Options.Attachments {
		att, err := d.ingestor.Ingest(ctx, send.ChatID, in)
		if err != nil {
			d.notify(domain.NotificationError, fmt.Sprintf("adjunto %q rechazado: %v", in.FileName, err))
			if d.logger != nil {
				d.logger.Warn("attachment rejected", zap.String("file", in.FileName), zap.Error(err))
			}
			continue
		}
		ready = append(ready, att)
	}
	if len(ready) == 0 {
		return
	}
	if err := d.chats.AttachFiles(ctx, send.ChatID, messageID, ready); err != nil && d.logger != nil {
		d.logger.Warn("attach files failed", zap.Error(err))
	}
}

// searchContext consulta al buscador y pliega los resultados en un mensaje
// de contexto sintético; un fallo degrada a contexto vacío.
func (d *Dispatcher) searchContext(ctx context.Context, send QueuedSend) (string, []string) {
	if !send.Options.WebSearch || d.searcher == nil {
		return "", nil
	}
	results, err := d.searcher.Search(ctx, send.Content)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("web search failed", zap.Error(err))
		}
		return "", nil
	}
	if len(results) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("Resultados de búsqueda web relevantes para la consulta:\n")
	sources := make([]string, 0, len(results))
	for _, r := range results {
		sb.WriteString(fmt.Sprintf("- %s: %s (%s)\n", r.Title, r.Snippet, r.URL))
		sources = append(sources, r.URL)
	}
	return sb.String(), sources
}

func (d *Dispatcher) failSend(send QueuedSend, reason string, err error) {
	d.notify(domain.NotificationError, fmt.Sprintf("%s: %v", reason, err))
	d.mu.Lock()
	d.lastErr = fmt.Sprintf("%s: %v", reason, err)
	d.mu.Unlock()
	metrics.SendsTotal.WithLabelValues("error").Inc()
	if d.logger != nil {
		d.logger.Error("send failed",
			zap.String("send_id", send.ID),
			zap.String("chat_id", send.ChatID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) notify(kind, message string) {
	if d.notifier != nil {
		d.notifier.Push(kind, message)
	}
}

func (d *Dispatcher) setLoading(v bool) {
	d.mu.Lock()
	d.loading = v
	d.mu.Unlock()
}

// Status devuelve el estado observable de la cola.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Queued:     len(d.queue),
		Processing: d.loading,
		LastError:  d.lastErr,
	}
}

// Loading informa si hay un envío procesándose en este instante.
func (d *Dispatcher) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// WaitIdle bloquea hasta que la cola quede vacía y el worker en reposo.
func (d *Dispatcher) WaitIdle(ctx context.Context) error {
	for {
		d.mu.Lock()
		idle := len(d.queue) == 0 && !d.running
		ch := d.idleCh
		d.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
