package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Kasai-Ohara-Tsu/apo2/internal/error/code"
	"github.com/Kasai-Ohara-Tsu/apo2/internal/error/response"
	"github.com/Kasai-Ohara-Tsu/apo2/models"
	"github.com/Kasai-Ohara-Tsu/apo2/services"
	"github.com/Kasai-Ohara-Tsu/apo2/services/container"
)

// DepartmentController 处理部署相关的请求
type DepartmentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDepartmentController 创建一个新的部署控制器
func NewDepartmentController(ctx *gin.Context, container *container.ServiceContainer) *DepartmentController {
	return &DepartmentController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateDepartmentRequest 表示创建部署的请求
type CreateDepartmentRequest struct {
	Name       string `json:"name" binding:"required" example:"総務部"`
	Type       string `json:"type" binding:"required,oneof=headquarters department section special" example:"department"`
	ParentID   *uint  `json:"parent_id" example:"1"`
	Order      int    `json:"order" example:"1"`
	WebhookURL string `json:"webhook_url" example:"https://outlook.office.com/webhook/..."`
}

// UpdateDepartmentRequest 表示更新部署的请求
type UpdateDepartmentRequest struct {
	Name       string  `json:"name" example:"総務部"`
	ParentID   *uint   `json:"parent_id" example:"1"`
	Order      *int    `json:"order" example:"1"`
	WebhookURL *string `json:"webhook_url" example:"https://outlook.office.com/webhook/..."`
}

// HandleDepartmentFunc 返回一个处理部署请求的Gin处理函数
func HandleDepartmentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDepartmentController(ctx, container)

		switch method {
		case "getDepartments":
			controller.GetDepartments()
		case "getHierarchy":
			controller.GetHierarchy()
		case "createDepartment":
			controller.CreateDepartment()
		case "updateDepartment":
			controller.UpdateDepartment()
		case "deleteDepartment":
			controller.DeleteDepartment()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// departmentService 从容器取部署服务
func (c *DepartmentController) departmentService() services.InterfaceDepartmentService {
	return c.Container.GetService("department").(services.InterfaceDepartmentService)
}

// GetDepartments 获取部署一览
// @Summary      Get Departments
// @Description  Get all departments ordered by display order
// @Tags         Department
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /departments [get]
func (c *DepartmentController) GetDepartments() {
	departments, err := c.departmentService().GetAllDepartments()
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Ctx, departments)
}

// GetHierarchy 获取部署树
// @Summary      Get Department Hierarchy
// @Description  Get the department tree used by the reception kiosk
// @Tags         Department
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /departments/hierarchy [get]
func (c *DepartmentController) GetHierarchy() {
	hierarchy, err := c.departmentService().GetDepartmentHierarchy()
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Ctx, hierarchy)
}

// CreateDepartment 创建新部署
// @Summary      Create Department
// @Description  Create a new department
// @Tags         Department
// @Accept       json
// @Produce      json
// @Param        request body CreateDepartmentRequest true "Department parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /departments [post]
func (c *DepartmentController) CreateDepartment() {
	var req CreateDepartmentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	department := &models.Department{
		Name:           req.Name,
		DepartmentType: models.DepartmentType(req.Type),
		ParentID:       req.ParentID,
		Order:          req.Order,
		WebhookURL:     req.WebhookURL,
	}
	if err := c.departmentService().CreateDepartment(department); err != nil {
		if errors.Is(err, services.ErrDepartmentNotFound) {
			response.Fail(c.Ctx, code.ErrDepartmentNotFound, nil)
		} else {
			response.FailWithMessage(c.Ctx, code.ErrValidation, err.Error(), nil)
		}
		return
	}

	response.Success(c.Ctx, department)
}

// UpdateDepartment 更新部署信息
// @Summary      Update Department
// @Description  Update a department including its notification webhook URL
// @Tags         Department
// @Accept       json
// @Produce      json
// @Param        id path int true "Department ID" example:"1"
// @Param        request body UpdateDepartmentRequest true "Update parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /departments/{id} [put]
func (c *DepartmentController) UpdateDepartment() {
	id, err := strconv.Atoi(c.Ctx.Param("id"))
	if err != nil || id <= 0 {
		response.ParamError(c.Ctx, "无效的部署ID")
		return
	}

	var req UpdateDepartmentRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.ParentID != nil {
		updates["parent_id"] = *req.ParentID
	}
	if req.Order != nil {
		updates["order"] = *req.Order
	}
	if req.WebhookURL != nil {
		updates["webhook_url"] = *req.WebhookURL
	}

	department, err := c.departmentService().UpdateDepartment(uint(id), updates)
	if err != nil {
		if errors.Is(err, services.ErrDepartmentNotFound) {
			response.Fail(c.Ctx, code.ErrDepartmentNotFound, nil)
		} else {
			response.FailWithMessage(c.Ctx, code.ErrValidation, err.Error(), nil)
		}
		return
	}

	response.Success(c.Ctx, department)
}

// DeleteDepartment 删除部署
// @Summary      Delete Department
// @Description  Delete a department without children or staff
// @Tags         Department
// @Accept       json
// @Produce      json
// @Param        id path int true "Department ID" example:"1"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /departments/{id} [delete]
func (c *DepartmentController) DeleteDepartment() {
	id, err := strconv.Atoi(c.Ctx.Param("id"))
	if err != nil || id <= 0 {
		response.ParamError(c.Ctx, "无效的部署ID")
		return
	}

	if err := c.departmentService().DeleteDepartment(uint(id)); err != nil {
		if errors.Is(err, services.ErrDepartmentNotFound) {
			response.Fail(c.Ctx, code.ErrDepartmentNotFound, nil)
		} else {
			response.FailWithMessage(c.Ctx, code.ErrValidation, err.Error(), nil)
		}
		return
	}

	response.Success(c.Ctx, nil)
}
