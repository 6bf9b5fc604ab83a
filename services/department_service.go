package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Kasai-Ohara-Tsu/apo2/models"
)

// ErrDepartmentNotFound 部署不存在
var ErrDepartmentNotFound = errors.New("部署不存在")

// DepartmentNode 部署树节点
type DepartmentNode struct {
	models.Department
	Children []DepartmentNode `json:"children"`
}

// InterfaceDepartmentService 定义部署服务接口
type InterfaceDepartmentService interface {
	CreateDepartment(department *models.Department) error
	GetDepartmentByID(id uint) (*models.Department, error)
	GetAllDepartments() ([]models.Department, error)
	GetDepartmentHierarchy() ([]DepartmentNode, error)
	UpdateDepartment(id uint, updates map[string]interface{}) (*models.Department, error)
	DeleteDepartment(id uint) error
}

// DepartmentService 提供部署相关的服务
type DepartmentService struct {
	DB *gorm.DB
}

// NewDepartmentService 创建一个新的部署服务
func NewDepartmentService(db *gorm.DB) InterfaceDepartmentService {
	return &DepartmentService{DB: db}
}

// 1 CreateDepartment 创建新部署
func (s *DepartmentService) CreateDepartment(department *models.Department) error {
	if department.ParentID != nil {
		var count int64
		if err := s.DB.Model(&models.Department{}).
			Where("id = ?", *department.ParentID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrDepartmentNotFound
		}
	}
	return s.DB.Create(department).Error
}

// 2 GetDepartmentByID 根据ID获取部署
func (s *DepartmentService) GetDepartmentByID(id uint) (*models.Department, error) {
	var department models.Department
	err := s.DB.Preload("Parent").First(&department, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &department, nil
}

// 3 GetAllDepartments 按显示顺序获取所有部署
func (s *DepartmentService) GetAllDepartments() ([]models.Department, error) {
	var departments []models.Department
	err := s.DB.Order("`order` ASC, id ASC").Find(&departments).Error
	if err != nil {
		return nil, err
	}
	return departments, nil
}

// 4 GetDepartmentHierarchy 获取部署树，受付画面按此展示选择层级
func (s *DepartmentService) GetDepartmentHierarchy() ([]DepartmentNode, error) {
	departments, err := s.GetAllDepartments()
	if err != nil {
		return nil, err
	}

	// 一次查询后在内存里组树
	byParent := make(map[uint][]models.Department)
	var roots []models.Department
	for _, d := range departments {
		if d.ParentID == nil {
			roots = append(roots, d)
		} else {
			byParent[*d.ParentID] = append(byParent[*d.ParentID], d)
		}
	}

	var build func(dept models.Department) DepartmentNode
	build = func(dept models.Department) DepartmentNode {
		node := DepartmentNode{Department: dept, Children: []DepartmentNode{}}
		for _, child := range byParent[dept.ID] {
			node.Children = append(node.Children, build(child))
		}
		return node
	}

	nodes := make([]DepartmentNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, build(root))
	}
	return nodes, nil
}

// 5 UpdateDepartment 更新部署信息（含通知 Webhook 地址）
func (s *DepartmentService) UpdateDepartment(id uint, updates map[string]interface{}) (*models.Department, error) {
	department, err := s.GetDepartmentByID(id)
	if err != nil {
		return nil, err
	}

	if v, ok := updates["parent_id"]; ok {
		if parentID, ok := v.(uint); ok && parentID == id {
			return nil, errors.New("上级部署不能设置为本部署")
		}
	}

	if err := s.DB.Model(department).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetDepartmentByID(id)
}

// 6 DeleteDepartment 删除部署，存在下级或在籍社员时拒绝
func (s *DepartmentService) DeleteDepartment(id uint) error {
	department, err := s.GetDepartmentByID(id)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.DB.Model(&models.Department{}).
		Where("parent_id = ?", id).Count(&childCount).Error; err != nil {
		return err
	}
	if childCount > 0 {
		return errors.New("存在下级部署，不能删除")
	}

	var staffCount int64
	if err := s.DB.Model(&models.Staff{}).
		Where("department_id = ?", id).Count(&staffCount).Error; err != nil {
		return err
	}
	if staffCount > 0 {
		return errors.New("部署下还有社员，不能删除")
	}

	return s.DB.Delete(department).Error
}
