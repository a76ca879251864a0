// Package apptype 维护 Steam 元数据中 common.type 字段的已知取值。
//
// 每个分类在 init() 中注册，配置校验与模型构建都通过本包判断
// 某个分类是否存在、是否默认参与链接树构建。比较一律大小写不敏感。
package apptype
