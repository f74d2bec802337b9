package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"corkboard/board"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, ctrl Board, store Pinger, auth Authenticator, logger *log.Logger) {
	e.GET("/api/board", getBoard(ctrl, auth))
	e.POST("/api/tasks", postTask(ctrl, auth, logger))
	e.PUT("/api/tasks/:id", putTask(ctrl, auth, logger))
	e.POST("/api/tasks/:id/move", moveTask(ctrl, auth, logger))
	e.DELETE("/api/tasks/:id", deleteTask(ctrl, auth, logger))
	e.GET("/healthz", healthz(store))
}

func healthz(store Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if store != nil {
			if err := store.Ping(c.Request().Context()); err != nil {
				return c.String(http.StatusServiceUnavailable, err.Error())
			}
		}
		return c.NoContent(http.StatusOK)
	}
}

func getBoard(ctrl Board, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization")); err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		return c.JSON(http.StatusOK, boardResponse{Columns: ctrl.View()})
	}
}

func postTask(ctrl Board, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger, "/api/tasks")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		var req taskRequest
		if decodeErr := decodeBody(c.Request().Body, &req); decodeErr != nil {
			metrics.SetErrorStage("decode")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}

		applyStart := time.Now()
		ctrl.OpenAdd()
		task, submitErr := ctrl.SubmitDialog(ctx, req.Title, req.Description)
		metrics.ObserveApply(time.Since(applyStart))
		if submitErr != nil {
			ctrl.CancelDialog()
			if errors.Is(submitErr, board.ErrEmptyTitle) {
				metrics.SetErrorStage("empty_title")
				err = c.String(http.StatusUnprocessableEntity, "title required")
				return err
			}
			metrics.SetErrorStage("apply")
			c.Logger().Error(submitErr)
			err = c.String(http.StatusInternalServerError, submitErr.Error())
			return err
		}
		err = c.JSON(http.StatusCreated, task)
		return err
	}
}

func putTask(ctrl Board, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger, "/api/tasks/:id")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		var req taskRequest
		if decodeErr := decodeBody(c.Request().Body, &req); decodeErr != nil {
			metrics.SetErrorStage("decode")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}

		applyStart := time.Now()
		_, openErr := ctrl.OpenEdit(c.Param("id"))
		if openErr != nil {
			metrics.ObserveApply(time.Since(applyStart))
			if errors.Is(openErr, board.ErrEditBlocked) {
				metrics.SetErrorStage("edit_blocked")
				err = c.String(http.StatusForbidden, "editing blocked in this column")
				return err
			}
			metrics.SetErrorStage("unknown_task")
			err = c.String(http.StatusNotFound, "task not found")
			return err
		}
		task, submitErr := ctrl.SubmitDialog(ctx, req.Title, req.Description)
		metrics.ObserveApply(time.Since(applyStart))
		if submitErr != nil {
			ctrl.CancelDialog()
			switch {
			case errors.Is(submitErr, board.ErrEmptyTitle):
				metrics.SetErrorStage("empty_title")
				err = c.String(http.StatusUnprocessableEntity, "title required")
			case errors.Is(submitErr, board.ErrTaskNotFound):
				metrics.SetErrorStage("unknown_task")
				err = c.String(http.StatusNotFound, "task not found")
			case errors.Is(submitErr, board.ErrEditBlocked):
				metrics.SetErrorStage("edit_blocked")
				err = c.String(http.StatusForbidden, "editing blocked in this column")
			default:
				metrics.SetErrorStage("apply")
				c.Logger().Error(submitErr)
				err = c.String(http.StatusInternalServerError, submitErr.Error())
			}
			return err
		}
		err = c.JSON(http.StatusOK, task)
		return err
	}
}

func moveTask(ctrl Board, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger, "/api/tasks/:id/move")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		var req moveRequest
		if decodeErr := decodeBody(c.Request().Body, &req); decodeErr != nil {
			metrics.SetErrorStage("decode")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}

		applyStart := time.Now()
		moveErr := ctrl.Move(ctx, c.Param("id"), req.Column)
		metrics.ObserveApply(time.Since(applyStart))
		if moveErr != nil {
			switch {
			case errors.Is(moveErr, board.ErrTaskNotFound):
				metrics.SetErrorStage("unknown_task")
				err = c.String(http.StatusNotFound, "task not found")
			case errors.Is(moveErr, board.ErrUnknownColumn):
				metrics.SetErrorStage("unknown_column")
				err = c.String(http.StatusBadRequest, "unknown column")
			default:
				metrics.SetErrorStage("apply")
				c.Logger().Error(moveErr)
				err = c.String(http.StatusInternalServerError, moveErr.Error())
			}
			return err
		}
		err = c.NoContent(http.StatusNoContent)
		return err
	}
}

func deleteTask(ctrl Board, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newBoardRequestMetrics(ctx, logger, "/api/tasks/:id")
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		confirmed := c.QueryParam("confirm") == "true"
		confirm := board.ConfirmFunc(func(string) bool { return confirmed })

		applyStart := time.Now()
		deleteErr := ctrl.Delete(ctx, c.Param("id"), confirm)
		metrics.ObserveApply(time.Since(applyStart))
		if deleteErr != nil {
			switch {
			case errors.Is(deleteErr, board.ErrNotConfirmed):
				// User cancellation, not a failure.
				metrics.SetErrorStage("not_confirmed")
				err = c.String(http.StatusConflict, "confirmation required")
			case errors.Is(deleteErr, board.ErrTaskNotFound):
				metrics.SetErrorStage("unknown_task")
				err = c.String(http.StatusNotFound, "task not found")
			default:
				metrics.SetErrorStage("apply")
				c.Logger().Error(deleteErr)
				err = c.String(http.StatusInternalServerError, deleteErr.Error())
			}
			return err
		}
		err = c.NoContent(http.StatusNoContent)
		return err
	}
}

func decodeBody(r io.Reader, v interface{}) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(r, taskRequestMaxSize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
