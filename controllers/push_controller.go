package controllers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Kasai-Ohara-Tsu/apo2/internal/error/code"
	"github.com/Kasai-Ohara-Tsu/apo2/internal/error/response"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
	"github.com/Kasai-Ohara-Tsu/apo2/services"
	"github.com/Kasai-Ohara-Tsu/apo2/services/container"
)

// 受付端和社员端都是内网页面，升级请求不做来源校验
var pushUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PushController 处理推送通道的接入请求
type PushController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewPushController 创建一个新的推送控制器
func NewPushController(ctx *gin.Context, container *container.ServiceContainer) *PushController {
	return &PushController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandlePushFunc 返回一个处理推送通道请求的Gin处理函数
func HandlePushFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewPushController(ctx, container)

		switch method {
		case "staffChannel":
			controller.StaffChannel()
		case "receptionChannel":
			controller.ReceptionChannel()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// pushService 从容器取推送服务
func (c *PushController) pushService() services.InterfacePushService {
	return c.Container.GetService("push").(services.InterfacePushService)
}

// StaffChannel 社员端推送通道接入
// @Summary      Staff Push Channel
// @Description  Upgrade to a WebSocket connection subscribed to a staff member's channel
// @Tags         Push
// @Param        staff_id path int true "Staff ID" example:"1"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /ws/staff/{staff_id} [get]
func (c *PushController) StaffChannel() {
	staffID, err := strconv.Atoi(c.Ctx.Param("staff_id"))
	if err != nil || staffID <= 0 {
		response.ParamError(c.Ctx, "无效的社员ID")
		return
	}

	// 未登记的社员不给开通道
	staffService := c.Container.GetService("staff").(services.InterfaceStaffService)
	if _, err := staffService.GetStaffByID(uint(staffID)); err != nil {
		response.Fail(c.Ctx, code.ErrStaffNotFound, nil)
		return
	}

	conn, err := pushUpgrader.Upgrade(c.Ctx.Writer, c.Ctx.Request, nil)
	if err != nil {
		log.Printf("[PUSH] WebSocket升级失败: %v", err)
		return
	}

	c.pushService().Attach(models.StaffChannelName(uint(staffID)), conn)
}

// ReceptionChannel 受付端推送通道接入
// @Summary      Reception Push Channel
// @Description  Upgrade to a WebSocket connection subscribed to the reception channel
// @Tags         Push
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      400  {object}  ErrorResponse
// @Router       /ws/reception [get]
func (c *PushController) ReceptionChannel() {
	conn, err := pushUpgrader.Upgrade(c.Ctx.Writer, c.Ctx.Request, nil)
	if err != nil {
		log.Printf("[PUSH] WebSocket升级失败: %v", err)
		return
	}

	c.pushService().Attach(models.ChannelReception, conn)
}
