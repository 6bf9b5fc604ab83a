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

// StaffController 处理社员相关的请求
type StaffController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewStaffController 创建一个新的社员控制器
func NewStaffController(ctx *gin.Context, container *container.ServiceContainer) *StaffController {
	return &StaffController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateStaffRequest 表示创建社员的请求
type CreateStaffRequest struct {
	Name           string `json:"name" binding:"required" example:"青山一郎"`
	NameKana       string `json:"name_kana" example:"あおやまいちろう"`
	EmployeeNumber string `json:"employee_number" binding:"required" example:"E0001"`
	Email          string `json:"email" example:"aoyama@example.co.jp"`
	DepartmentID   *uint  `json:"department_id" example:"1"`
	Substitute1ID  *uint  `json:"substitute1_id" example:"2"`
	Substitute2ID  *uint  `json:"substitute2_id" example:"3"`
}

// UpdateStaffRequest 表示更新社员的请求
type UpdateStaffRequest struct {
	Name          string `json:"name" example:"青山一郎"`
	NameKana      string `json:"name_kana" example:"あおやまいちろう"`
	Email         string `json:"email" example:"aoyama@example.co.jp"`
	DepartmentID  *uint  `json:"department_id" example:"1"`
	Substitute1ID *uint  `json:"substitute1_id" example:"2"`
	Substitute2ID *uint  `json:"substitute2_id" example:"3"`
	IsActive      *bool  `json:"is_active" example:"true"`
}

// HandleStaffFunc 返回一个处理社员请求的Gin处理函数
func HandleStaffFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewStaffController(ctx, container)

		switch method {
		case "getStaffs":
			controller.GetStaffs()
		case "getStaff":
			controller.GetStaff()
		case "searchStaffs":
			controller.SearchStaffs()
		case "createStaff":
			controller.CreateStaff()
		case "updateStaff":
			controller.UpdateStaff()
		case "deleteStaff":
			controller.DeleteStaff()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}

// staffService 从容器取社员服务
func (c *StaffController) staffService() services.InterfaceStaffService {
	return c.Container.GetService("staff").(services.InterfaceStaffService)
}

// GetStaffs 获取社员列表
// @Summary      Get Staffs
// @Description  Get a list of active staff members, with pagination
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number, default is 1" example:"1"
// @Param        page_size query int false "Items per page, default is 20" example:"20"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /staff [get]
func (c *StaffController) GetStaffs() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	staffs, total, err := c.staffService().GetAllStaffs(&models.PaginationQuery{
		PageNum:  page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"pagination": models.NewPaginationResult(int(total), page, pageSize),
		"records":    staffs,
	})
}

// GetStaff 获取单个社员
// @Summary      Get Staff By ID
// @Description  Get details of a staff member including substitutes
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Param        id path int true "Staff ID" example:"1"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /staff/{id} [get]
func (c *StaffController) GetStaff() {
	id, err := strconv.Atoi(c.Ctx.Param("id"))
	if err != nil || id <= 0 {
		response.ParamError(c.Ctx, "无效的社员ID")
		return
	}

	staff, err := c.staffService().GetStaffByID(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrStaffNotFound) {
			response.Fail(c.Ctx, code.ErrStaffNotFound, nil)
		} else {
			response.Fail(c.Ctx, code.ErrDatabase, nil)
		}
		return
	}

	response.Success(c.Ctx, staff)
}

// SearchStaffs 按关键字检索社员
// @Summary      Search Staffs
// @Description  Search active staff members by name, kana or employee number
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Param        q query string true "Search keyword" example:"青山"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /staff/search [get]
func (c *StaffController) SearchStaffs() {
	keyword := c.Ctx.Query("q")

	staffs, err := c.staffService().SearchStaffs(keyword)
	if err != nil {
		response.Fail(c.Ctx, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Ctx, staffs)
}

// CreateStaff 创建新社员
// @Summary      Create Staff
// @Description  Create a new staff member
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Param        request body CreateStaffRequest true "Staff parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /staff [post]
func (c *StaffController) CreateStaff() {
	var req CreateStaffRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	staff := &models.Staff{
		Name:           req.Name,
		NameKana:       req.NameKana,
		EmployeeNumber: req.EmployeeNumber,
		Email:          req.Email,
		DepartmentID:   req.DepartmentID,
		Substitute1ID:  req.Substitute1ID,
		Substitute2ID:  req.Substitute2ID,
		IsActive:       true,
	}
	if err := c.staffService().CreateStaff(staff); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrStaffAlreadyExist, err.Error(), nil)
		return
	}

	response.Success(c.Ctx, staff)
}

// UpdateStaff 更新社员信息
// @Summary      Update Staff
// @Description  Update a staff member including substitute assignments
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Param        id path int true "Staff ID" example:"1"
// @Param        request body UpdateStaffRequest true "Update parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /staff/{id} [put]
func (c *StaffController) UpdateStaff() {
	id, err := strconv.Atoi(c.Ctx.Param("id"))
	if err != nil || id <= 0 {
		response.ParamError(c.Ctx, "无效的社员ID")
		return
	}

	var req UpdateStaffRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.ParamError(c.Ctx, "无效的请求参数: "+err.Error())
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.NameKana != "" {
		updates["name_kana"] = req.NameKana
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.DepartmentID != nil {
		updates["department_id"] = *req.DepartmentID
	}
	if req.Substitute1ID != nil {
		updates["substitute1_id"] = *req.Substitute1ID
	}
	if req.Substitute2ID != nil {
		updates["substitute2_id"] = *req.Substitute2ID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	staff, err := c.staffService().UpdateStaff(uint(id), updates)
	if err != nil {
		if errors.Is(err, services.ErrStaffNotFound) {
			response.Fail(c.Ctx, code.ErrStaffNotFound, nil)
		} else {
			response.FailWithMessage(c.Ctx, code.ErrValidation, err.Error(), nil)
		}
		return
	}

	response.Success(c.Ctx, staff)
}

// DeleteStaff 删除社员
// @Summary      Delete Staff
// @Description  Deactivate a staff member
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Param        id path int true "Staff ID" example:"1"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /staff/{id} [delete]
func (c *StaffController) DeleteStaff() {
	id, err := strconv.Atoi(c.Ctx.Param("id"))
	if err != nil || id <= 0 {
		response.ParamError(c.Ctx, "无效的社员ID")
		return
	}

	if err := c.staffService().DeleteStaff(uint(id)); err != nil {
		if errors.Is(err, services.ErrStaffNotFound) {
			response.Fail(c.Ctx, code.ErrStaffNotFound, nil)
		} else {
			response.Fail(c.Ctx, code.ErrDatabase, nil)
		}
		return
	}

	response.Success(c.Ctx, nil)
}
