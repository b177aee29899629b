// Package xconf 加载 xshipd 的配置文件，基于 koanf 实现。
//
// # 配置结构
//
// 配置分为三段，键名使用 snake_case：
//
//	stream:
//	  path: /var/log/app/app.log
//	  total_files: 10
//	  total_size: 1g
//	  gzip: true
//	  format: json            # json | ordered-json | unsafe-json | text | raw
//	  field_order: [time, level, msg]
//	  no_cycles_check: false
//	  raw: false
//	  start_new_file: false
//	  shared: false
//	  capacity: 10000
//	  batch_size: 256
//	  eviction: oldest        # oldest | newest
//	trigger:
//	  period: daily           # 见 xtrigger.ParsePeriod
//	  threshold: 100m
//	  watch: true
//	log:
//	  level: info
//	  format: text
//	  file: /var/log/xshipd.log
//
// 文件中未出现的键保留 [Default] 的值。
//
// # 支持的格式
//
//   - YAML（推荐）：.yaml, .yml
//   - JSON：.json
//
// # 并发安全
//
// [Loader] 的所有方法并发安全。Reload 解析成功后才替换 koanf 实例，
// 失败时保留旧配置。
//
// # 配置监视
//
// [Watch] 基于 fsnotify 监视配置文件所在目录，内置防抖，支持 vim/emacs 的原子写入。
// 从字节数据创建的 Loader 不支持监视。Stop() 之后不再开始新的回调，在回调中调用 Stop() 是安全的。
package xconf
