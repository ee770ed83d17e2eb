// internal/panel/parser_test.go
package panel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instanceListHTML = `
<html><body>
<table>
  <tr><th>ID</th><th>Name</th><th>Status</th><th>Start</th><th>End</th><th>User</th><th>Pass</th><th>Ops</th></tr>
  <tr>
    <td>101</td>
    <td><span>web-1</span></td>
    <td><font color="green">运行中</font></td>
    <td>2024-01-01</td>
    <td>2024-12-31</td>
    <td><span>root</span></td>
    <td><span>pa55w0rd</span></td>
    <td>manage</td>
  </tr>
  <tr>
    <td>102</td>
    <td><span>db-1</span></td>
    <td><font color="red">已停止</font></td>
    <td>2024-02-01</td>
    <td>2025-01-31</td>
    <td><span>root</span></td>
    <td><span>s3cret</span></td>
    <td>manage</td>
  </tr>
  <tr><td>short</td><td>row</td></tr>
</table>
</body></html>`

func TestParseInstanceList(t *testing.T) {
	instances, err := ParseInstanceList(strings.NewReader(instanceListHTML))
	require.NoError(t, err)
	require.Len(t, instances, 2, "header and short rows must be skipped")

	assert.Equal(t, "101", instances[0].ID)
	assert.Equal(t, "web-1", instances[0].Name)
	assert.Equal(t, "运行中", instances[0].Status)
	assert.Equal(t, "2024-01-01", instances[0].StartTime)
	assert.Equal(t, "2024-12-31", instances[0].EndTime)
	assert.Equal(t, "root", instances[0].Username)
	assert.Equal(t, "pa55w0rd", instances[0].Password)

	assert.Equal(t, "db-1", instances[1].Name)
	assert.Equal(t, "已停止", instances[1].Status)
}

func TestParseInstanceListNoTable(t *testing.T) {
	_, err := ParseInstanceList(strings.NewReader(`<html><body><p>nothing here</p></body></html>`))
	require.ErrorIs(t, err, ErrNoInstanceTable)
}

func TestParseInstanceListEmptyTable(t *testing.T) {
	html := `<html><body><table><tr><th>ID</th></tr></table></body></html>`
	instances, err := ParseInstanceList(strings.NewReader(html))
	require.NoError(t, err, "an empty table is zero instances, not a parse failure")
	assert.Empty(t, instances)
}

const instanceDetailHTML = `
<html><body>
<el-descriptions-item label="实例ID">101</el-descriptions-item>
<el-descriptions-item label="套餐">基础型</el-descriptions-item>
<el-descriptions-item label="">ignored</el-descriptions-item>
<el-card class="box-card">
  <font color="green">运行中</font>
  <div><span>内网IP:</span><span>10.0.3.7</span></div>
  <div>用户名: root</div>
  <div><span>内存使用:</span><span>512MB</span><span>/1024MB</span></div>
  <div><span>硬盘使用:</span><span>3GB</span><span>/10GB</span></div>
  <div>流量使用: 12GB/100GB</div>
</el-card>
<div class="table-responsive" id="listtable">
  <table>
    <tr><th>#</th><th>Protocol</th><th>Internal</th><th>External</th></tr>
    <tr><td>1</td><td>tcp</td><td>10.0.3.7:22</td><td>203.0.113.9:40022</td></tr>
    <tr><td>2</td><td>udp</td><td>10.0.3.7:53</td><td>203.0.113.9:40053</td></tr>
    <tr><td>bad</td><td>row</td></tr>
  </table>
</div>
</body></html>`

func TestParseInstanceDetail(t *testing.T) {
	detail, err := ParseInstanceDetail(strings.NewReader(instanceDetailHTML))
	require.NoError(t, err)

	assert.Equal(t, "101", detail.BasicInfo["实例ID"])
	assert.Equal(t, "基础型", detail.BasicInfo["套餐"])
	assert.NotContains(t, detail.BasicInfo, "")

	assert.Equal(t, "运行中", detail.SystemInfo["运行状态"])
	assert.Equal(t, "10.0.3.7", detail.SystemInfo["内网IP"])
	assert.Equal(t, "root", detail.SystemInfo["用户名"])
	assert.Equal(t, "512MB /1024MB", detail.SystemInfo["内存使用"])
	assert.Equal(t, "3GB /10GB", detail.SystemInfo["硬盘使用"])
	assert.Equal(t, "12GB/100GB", detail.SystemInfo["流量使用"])

	require.Len(t, detail.Ports, 2, "rows with too few cells must be skipped")
	assert.Equal(t, "1", detail.Ports[0].ID)
	assert.Equal(t, "tcp", detail.Ports[0].Protocol)
	assert.Equal(t, "10.0.3.7:22", detail.Ports[0].InternalAddr)
	assert.Equal(t, "203.0.113.9:40022", detail.Ports[0].ExternalAddr)
	assert.Equal(t, "udp", detail.Ports[1].Protocol)
}

func TestParseInstanceDetailPartialDocument(t *testing.T) {
	// Only the card is present; the other sections come back empty
	// instead of failing or being filled with placeholders.
	html := `<html><body><el-card class="box-card"><font>已停止</font></el-card></body></html>`
	detail, err := ParseInstanceDetail(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "已停止", detail.SystemInfo["运行状态"])
	assert.Empty(t, detail.BasicInfo)
	assert.Empty(t, detail.Ports)
}

func TestParseInstanceDetailEmptyDocument(t *testing.T) {
	detail, err := ParseInstanceDetail(strings.NewReader(`<html><body></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, detail.BasicInfo)
	assert.Empty(t, detail.SystemInfo)
	assert.Empty(t, detail.Ports)
}
