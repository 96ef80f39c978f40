package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumeStudio/internal/editor"
)

// Enqueuer 投递异步任务，*asynq.Client 满足该接口。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Subscriber 订阅 Redis 频道，*redis.Client 满足该接口。
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// Deps 汇总路由需要的依赖。Queue、Notifications 与 Scanner 可以为空，对应功能随之关闭。
type Deps struct {
	Editor         *editor.Service
	Queue          Enqueuer
	Notifications  Subscriber
	NotifyChannel  string
	Scanner        Scanner
	AllowedOrigins []string
	Logger         *slog.Logger
}

// RegisterRoutes 注册导航路由与 /v1 编辑器接口。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	navHandler := NewTemplateHandler(deps.Editor)
	editorHandler := NewEditorHandler(deps.Editor)
	exportHandler := NewExportHandler(deps.Editor, deps.Queue)
	assetHandler := NewAssetHandler(deps.Editor, deps.Scanner)
	wsHandler := NewWsHandler(deps.Editor, deps.Notifications, deps.NotifyChannel, deps.Logger, deps.AllowedOrigins)

	router.GET("/", navHandler.Root)
	router.GET("/templates", navHandler.ListTemplates)
	router.POST("/templates/select", navHandler.SelectTemplate)
	router.GET("/editor", navHandler.Editor)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		resumeGroup := v1.Group("/resume")
		{
			resumeGroup.GET("", editorHandler.GetResume)
			resumeGroup.PATCH("", editorHandler.PatchResume)
			resumeGroup.PUT("/html", editorHandler.ImportHTML)
			resumeGroup.POST("/import", editorHandler.ImportJSON)
			resumeGroup.GET("/score", editorHandler.GetScore)
			resumeGroup.GET("/validation", editorHandler.GetValidation)
			resumeGroup.POST("/profile-picture", assetHandler.UploadProfilePicture)
			resumeGroup.DELETE("/profile-picture", assetHandler.DeleteProfilePicture)
		}

		v1.GET("/preview", editorHandler.GetPreview)
		v1.GET("/preview/html", editorHandler.GetPreviewHTML)

		v1.GET("/export/:format", exportHandler.Download)
		v1.POST("/export/pdf/jobs", exportHandler.EnqueuePDF)
		v1.POST("/shortcuts", exportHandler.HandleShortcut)
	}
}
