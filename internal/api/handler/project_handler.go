package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipedash/internal/api/middleware"
	"pipedash/internal/dto"
	"pipedash/internal/service"
	"pipedash/pkg/utils"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// Create 创建项目
// @Summary 创建项目
// @Description 在 GitLab 上创建项目并注册 webhook；webhook 注册失败时项目状态为 PROVISIONING_INCOMPLETE 并附带 warning
// @Tags Project
// @Accept json
// @Produce json
// @Param request body dto.CreateProjectRequest true "创建项目请求"
// @Success 200 {object} utils.Response{data=dto.ProjectResponse}
// @Router /api/v1/project [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	if project.Warning != "" {
		utils.SuccessWithMessage(c, project.Warning, project)
		return
	}
	utils.Success(c, project)
}

// GetByID 获取项目详情
// @Summary 获取项目详情
// @Tags Project
// @Produce json
// @Param id path int64 true "项目ID"
// @Success 200 {object} utils.Response{data=dto.ProjectResponse}
// @Router /api/v1/project/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, project)
}

// List 获取项目列表
// @Summary 获取项目列表
// @Description 按创建时间倒序，每个项目附带最近 5 条流水线
// @Tags Project
// @Produce json
// @Success 200 {object} utils.Response{data=[]dto.ProjectResponse}
// @Router /api/v1/projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context())
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, projects)
}

// Delete 删除项目
// @Summary 删除项目
// @Description 先删除 GitLab 项目，成功后删除本地项目及其流水线
// @Tags Project
// @Produce json
// @Param id path int64 true "项目ID"
// @Success 200 {object} utils.Response
// @Router /api/v1/project/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), middleware.CurrentUser(c), param.ID); err != nil {
		utils.Error(c, err)
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}

// Reconcile 重试 webhook 注册
// @Summary 补偿未完成的项目
// @Tags Project
// @Produce json
// @Param id path int64 true "项目ID"
// @Success 200 {object} utils.Response{data=dto.ProjectResponse}
// @Router /api/v1/project/{id}/reconcile [post]
func (h *ProjectHandler) Reconcile(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	project, err := h.projectService.Reconcile(c.Request.Context(), middleware.CurrentUser(c), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, project)
}

// Namespaces 搜索 GitLab group，供创建项目时选择
// @Summary 搜索 GitLab group
// @Tags Project
// @Produce json
// @Param search query string false "关键字"
// @Success 200 {object} utils.Response{data=[]dto.NamespaceResponse}
// @Router /api/v1/namespaces [get]
func (h *ProjectHandler) Namespaces(c *gin.Context) {
	var query dto.NamespaceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	namespaces, err := h.projectService.SearchNamespaces(c.Request.Context(), query.Search)
	if err != nil {
		utils.Error(c, err)
		return
	}
	utils.Success(c, namespaces)
}
