package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipedash/internal/api/middleware"
	"pipedash/internal/dto"
	"pipedash/internal/service"
	"pipedash/pkg/utils"
)

type PipelineHandler struct {
	pipelineService service.PipelineService
}

func NewPipelineHandler(pipelineService service.PipelineService) *PipelineHandler {
	return &PipelineHandler{
		pipelineService: pipelineService,
	}
}

// Trigger 触发流水线
// @Summary 触发流水线
// @Description APP_NAME 固定为项目名，variables 中的同名变量会被忽略
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param id path int64 true "项目ID"
// @Param request body dto.TriggerPipelineRequest false "触发参数"
// @Success 200 {object} utils.Response{data=dto.PipelineResponse}
// @Router /api/v1/project/{id}/pipelines [post]
func (h *PipelineHandler) Trigger(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	var req dto.TriggerPipelineRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
			return
		}
	}

	pipeline, err := h.pipelineService.Trigger(c.Request.Context(), middleware.CurrentUser(c), param.ID, &req)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, pipeline)
}

// ListByProject 项目流水线
// @Summary 同步并获取项目流水线
// @Description 先从 GitLab 拉取最近的流水线写入本地，再返回本地全部记录
// @Tags Pipeline
// @Produce json
// @Param id path int64 true "项目ID"
// @Success 200 {object} utils.Response{data=[]dto.PipelineResponse}
// @Router /api/v1/project/{id}/pipelines [get]
func (h *PipelineHandler) ListByProject(c *gin.Context) {
	var param dto.IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	pipelines, err := h.pipelineService.ListByProject(c.Request.Context(), param.ID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, pipelines)
}

// ListRecent 最近流水线
// @Summary 最近流水线
// @Tags Pipeline
// @Produce json
// @Param limit query int false "条数，默认 10，最大 100"
// @Success 200 {object} utils.Response{data=[]dto.PipelineResponse}
// @Router /api/v1/pipelines/recent [get]
func (h *PipelineHandler) ListRecent(c *gin.Context) {
	var query dto.RecentPipelinesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	pipelines, err := h.pipelineService.ListRecent(c.Request.Context(), query.GetLimit())
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, pipelines)
}

// Stats 状态统计
// @Summary 流水线状态统计
// @Tags Pipeline
// @Produce json
// @Param project_id query int64 false "项目ID，不传统计全部"
// @Success 200 {object} utils.Response{data=map[string]int64}
// @Router /api/v1/pipelines/stats [get]
func (h *PipelineHandler) Stats(c *gin.Context) {
	var query dto.PipelineStatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	stats, err := h.pipelineService.Stats(c.Request.Context(), query.ProjectID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, stats)
}

// Details 流水线详情
// @Summary 流水线详情
// @Description 直接读取 GitLab，包含作业列表
// @Tags Pipeline
// @Produce json
// @Param id path int64 true "项目ID"
// @Param pipelineId path int64 true "GitLab 流水线ID"
// @Success 200 {object} utils.Response{data=dto.PipelineDetailResponse}
// @Router /api/v1/project/{id}/pipeline/{pipelineId} [get]
func (h *PipelineHandler) Details(c *gin.Context) {
	var param dto.ProjectPipelineParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	detail, err := h.pipelineService.Details(c.Request.Context(), param.ID, param.PipelineID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, detail)
}

// JobLog 作业日志
// @Summary 作业日志
// @Tags Pipeline
// @Produce json
// @Param id path int64 true "项目ID"
// @Param jobId path int64 true "GitLab 作业ID"
// @Success 200 {object} utils.Response{data=dto.JobLogResponse}
// @Router /api/v1/project/{id}/job/{jobId}/log [get]
func (h *PipelineHandler) JobLog(c *gin.Context) {
	var param dto.ProjectJobParam
	if err := c.ShouldBindUri(&param); err != nil {
		utils.ErrorWithDetail(c, http.StatusBadRequest, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	log, err := h.pipelineService.JobLog(c.Request.Context(), param.ID, param.JobID)
	if err != nil {
		utils.Error(c, err)
		return
	}

	utils.Success(c, log)
}
