package district

import (
	"github.com/civicpulse/civicpulse/connector"
	"github.com/civicpulse/civicpulse/xerrors"
)

// StaticEntry 静态表中的一条 ZIP→选区映射
type StaticEntry struct {
	ZIP string `json:"zip" yaml:"zip" mapstructure:"zip"`
	Districts `mapstructure:",squash"`
}

// zipDistrictModel 静态表在 SQLite 中的存储形态
type zipDistrictModel struct {
	ZIP           string `gorm:"column:zip;primaryKey;size:5"`
	Assembly      int    `gorm:"column:assembly"`
	Senate        int    `gorm:"column:senate"`
	Congressional int    `gorm:"column:congressional"`
}

// TableName 指定表名
func (zipDistrictModel) TableName() string {
	return "zip_districts"
}

// LoadStaticFromSQLite 从 SQLite 读取离线整理的静态映射表。
// 数据集由数据管线离线产出，应用启动时一次性加载进内存。
func LoadStaticFromSQLite(conn connector.SQLiteConnector) ([]StaticEntry, error) {
	db := conn.GetClient()
	if db == nil {
		return nil, xerrors.New("district: sqlite connector is not connected")
	}

	var rows []zipDistrictModel
	if err := db.Find(&rows).Error; err != nil {
		return nil, xerrors.Wrap(err, "district: load static table")
	}

	entries := make([]StaticEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, StaticEntry{
			ZIP: r.ZIP,
			Districts: Districts{
				Assembly:      r.Assembly,
				Senate:        r.Senate,
				Congressional: r.Congressional,
			},
		})
	}
	return entries, nil
}
