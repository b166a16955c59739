// Package devserver is a fixture backend for local demos and client tests.
// It answers the lending endpoints from YAML data held in memory.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// Server serves the lending endpoints from fixtures.
type Server struct {
	store *store
	log   *zap.Logger
}

// New creates a Server over the given fixtures.
func New(fx *Fixtures, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: newStore(fx), log: log}
}

// requestForm is the multipart body of POST /request-book.
type requestForm struct {
	GroupID   int    `form:"group_id"`
	StudentID int    `form:"student_id" binding:"required,gt=0"`
	BookID    int    `form:"book_id" binding:"required,gt=0"`
	Quantity  int    `form:"quantity" binding:"gte=0"`
	CopyCodes string `form:"copy_codes"`
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog())

	r.GET("/get-groups", s.getGroups)
	r.GET("/get-books/:group_id", s.getBooks)
	r.GET("/search-books", s.searchBooks)
	r.GET("/get-students/:group_id", s.getStudents)
	r.GET("/search-students", s.searchStudents)
	r.GET("/get-available-copies/:book_id", s.getCopies)
	r.POST("/request-book", s.requestBook)
	r.GET("/check-status", s.checkStatus)
	return r
}

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) getGroups(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.groups())
}

func (s *Server) getBooks(c *gin.Context) {
	g := s.groupParam(c, c.Param("group_id"))
	if g == nil {
		return
	}
	c.JSON(http.StatusOK, s.store.books(g, ""))
}

func (s *Server) searchBooks(c *gin.Context) {
	g := s.groupParam(c, c.Query("group_id"))
	if g == nil {
		return
	}
	c.JSON(http.StatusOK, s.store.books(g, c.Query("q")))
}

func (s *Server) getStudents(c *gin.Context) {
	g := s.groupParam(c, c.Param("group_id"))
	if g == nil {
		return
	}
	c.JSON(http.StatusOK, s.store.students(g.ID, "", 0))
}

func (s *Server) searchStudents(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusOK, []struct{}{})
		return
	}
	g := s.groupParam(c, c.Query("group_id"))
	if g == nil {
		return
	}
	c.JSON(http.StatusOK, s.store.students(g.ID, q, 20))
}

func (s *Server) getCopies(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("book_id"))
	if err != nil || s.store.book(id) == nil {
		c.String(http.StatusNotFound, "Ошибка: Книга не найдена")
		return
	}
	c.JSON(http.StatusOK, s.store.copies(id))
}

func (s *Server) requestBook(c *gin.Context) {
	var form requestForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Ошибка: Неверные данные формы")
		return
	}

	var codes []string
	for _, code := range strings.Split(form.CopyCodes, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}

	rec, reason := s.store.reserve(form.StudentID, form.BookID, form.Quantity, codes)
	if reason != "" {
		c.String(http.StatusBadRequest, reason)
		return
	}
	s.log.Info("request accepted",
		zap.Int("request_id", rec.ID),
		zap.Int("student_id", rec.StudentID),
		zap.Int("book_id", rec.BookID),
		zap.Strings("copies", rec.Copies),
	)
	c.String(http.StatusOK, fmt.Sprintf("Запрос #%d отправлен!", rec.ID))
}

func (s *Server) checkStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Query("request_id"))
	if err != nil {
		c.String(http.StatusBadRequest, "Ошибка: Неверный номер запроса")
		return
	}
	rec := s.store.request(id)
	if rec == nil {
		c.String(http.StatusNotFound, "Ошибка: Запрос не найден")
		return
	}
	c.String(http.StatusOK, fmt.Sprintf("Запрос #%d: %s (%s)", rec.ID, rec.Status, strings.Join(rec.Copies, ", ")))
}

// groupParam resolves a group id from raw, writing a 404 when unknown.
func (s *Server) groupParam(c *gin.Context, raw string) *GroupRecord {
	id, err := strconv.Atoi(raw)
	if err == nil {
		if g := s.store.group(id); g != nil {
			return g
		}
	}
	c.String(http.StatusNotFound, "Ошибка: Группа не найдена")
	return nil
}

// requestID assigns a unique request id to each incoming request, reusing
// the caller's when present.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
