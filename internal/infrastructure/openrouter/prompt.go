package openrouter

// SystemPrompt sets the model up as a PCB QA engineer and caps the answer length.
const SystemPrompt = `你是一位资深的 PCB 设计专家和 QA 工程师。
你的任务是分析 PCB（印制电路板）图像中的制造缺陷。
重点关注区域：
1. 短路（走线/焊盘之间不必要的连接）
2. 开路（走线断裂）
3. 线距/间隙违规（走线太近）

请分析提供的图像。如果你看到缺陷，请描述其位置和严重程度。
请注意：**你的回答必须非常简练，严格控制在3句话以内。不要废话。**
使用中文回答。`

// UserPrompt accompanies the image in the user message.
const UserPrompt = "Please inspect this PCB image for defects."

// NoAnalysisText replaces an empty completion so the report is never blank.
const NoAnalysisText = "No analysis returned."

// MissingKeyMessage is shown when OPENROUTER_API_KEY is not set.
const MissingKeyMessage = "缺少 API Key。请在环境变量 OPENROUTER_API_KEY（或 .env 文件）中配置。"
