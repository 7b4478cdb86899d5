package parser

// ColumnAlias 统一字段及其可接受的表头写法（按优先级排列）
type ColumnAlias struct {
	Field   Field
	Aliases []string
}

// ColumnAliases 固定的表头同义词表。
// 同一字段的多个表头同时出现时，取别名列表中靠前者，与列顺序无关。
var ColumnAliases = []ColumnAlias{
	{Field: FieldOperationDate, Aliases: []string{"operationdate", "date", "otdate", "workdate"}},
	{Field: FieldWarehouseName, Aliases: []string{"warehouse", "warehousename", "site", "location"}},
	{Field: FieldCustomerName, Aliases: []string{"customer", "customername", "client"}},
	{Field: FieldEmployeeName, Aliases: []string{"employee", "employeename", "staff", "worker"}},
	{Field: FieldContractorName, Aliases: []string{"contractor", "contractorname", "vendor", "agency"}},
	{Field: FieldStartTime, Aliases: []string{"starttime", "start", "intime"}},
	{Field: FieldEndTime, Aliases: []string{"endtime", "end", "outtime"}},
	{Field: FieldOTAmount, Aliases: []string{"otamount", "amount", "otpay"}},
	{Field: FieldApprovalStatus, Aliases: []string{"approvalstatus", "approval", "status", "approved"}},
	{Field: FieldRemarks, Aliases: []string{"remarks", "reason", "note", "notes"}},
	{Field: FieldRatePerHour, Aliases: []string{"rateperhour", "rate"}},
}

// FieldMapping 字段映射结果
type FieldMapping struct {
	ColumnIndex int    `json:"columnIndex"` // 列下标
	ColumnName  string `json:"columnName"`  // 原始表头
	Field       Field  `json:"field"`       // 统一字段
	Alias       string `json:"alias"`       // 命中的别名
}

// HeaderResolution 表头解析结果：统一字段 -> 实际列
type HeaderResolution map[Field]FieldMapping

// Lookup 返回字段对应的列下标；未匹配时 ok 为 false
func (r HeaderResolution) Lookup(f Field) (int, bool) {
	m, ok := r[f]
	if !ok {
		return -1, false
	}
	return m.ColumnIndex, true
}

// Missing 未匹配到任何列的字段
func (r HeaderResolution) Missing(fields []Field) []Field {
	var out []Field
	for _, f := range fields {
		if _, ok := r[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// FieldMapper 字段映射器
type FieldMapper struct {
	aliases []ColumnAlias
}

// NewFieldMapper 创建字段映射器
func NewFieldMapper(aliases []ColumnAlias) *FieldMapper {
	if aliases == nil {
		aliases = ColumnAliases
	}
	return &FieldMapper{aliases: aliases}
}

// Resolve 将一行的表头解析为统一字段。
// 多列规范化后相同时取最靠前的一列；多余列忽略。
func (m *FieldMapper) Resolve(headers []string) HeaderResolution {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		key := NormalizeColumnName(h)
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	res := make(HeaderResolution, len(m.aliases))
	for _, ca := range m.aliases {
		for _, alias := range ca.Aliases {
			idx, ok := index[NormalizeColumnName(alias)]
			if !ok {
				continue
			}
			res[ca.Field] = FieldMapping{
				ColumnIndex: idx,
				ColumnName:  headers[idx],
				Field:       ca.Field,
				Alias:       alias,
			}
			break
		}
	}
	return res
}
